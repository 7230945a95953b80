package domain

type Patient struct {
	ID                  int64  `db:"id" json:"id"`
	FirstName           string `db:"first_name" json:"first_name"`
	LastName            string `db:"last_name" json:"last_name"`
	DateOfBirth         string `db:"date_of_birth" json:"date_of_birth"`
	MedicalRecordNumber string `db:"medical_record_number" json:"medical_record_number"`
	FullName            string `db:"full_name" json:"full_name"`
}
