package store

func DecodeRedisFields(fields map[string]string, uploadedAt int64) (*Submission, error) {
	return redisSubmission{
		ID:             fields["id"],
		ResumePath:     fields["resume_file"],
		JobDescription: fields["job_description"],
		ATSScore:       fields["ats_score"],
		MissingSkills:  fields["missing_skills"],
		UploadedAt:     uploadedAt,
	}.submission()
}
