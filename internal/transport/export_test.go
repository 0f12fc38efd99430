package transport

var DecodeMessage = decodeMessage
