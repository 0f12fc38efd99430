package mistral_test

import (
	"context"
	"encoding/json"
	gohttp "net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/alan-mat/atscore/internal/provider/mistral"
)

func TestParse(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		var req struct {
			Model    string            `json:"model"`
			Document map[string]string `json:"document"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		if !strings.HasPrefix(req.Document["document_url"], "data:application/pdf;base64,") {
			t.Errorf("invalid document url, got '%s'", req.Document["document_url"])
		}

		w.Write([]byte(`{"model": "mistral-ocr-latest", "pages": [
			{"index": 0, "markdown": "# Jane Doe"},
			{"index": 1, "markdown": ""}
		]}`))
	}))
	defer srv.Close()

	p := mistral.New(srv.URL)
	doc, err := p.Parse(context.Background(), "JVBERi0=")
	if err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}

	expected := &api.DocumentContent{Pages: []api.DocumentPage{
		{Index: 0, Text: "# Jane Doe"},
		{Index: 1, Text: ""},
	}}
	if !reflect.DeepEqual(doc, expected) {
		t.Errorf("invalid document content, expected '%+v', got '%+v'", expected, doc)
	}
}
