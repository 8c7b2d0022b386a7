// Package model defines the rows stored in the hospital database.
package model

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
)

// Valid reports whether r is one of the roles the users table accepts.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleReceptionist:
		return true
	}
	return false
}

type User struct {
	Id           int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"column:password_hash;not null"`
	Role         Role   `json:"role" gorm:"not null"`
	GdprConsent  bool   `json:"gdprConsent" gorm:"column:gdpr_consent;default:0"`
}

// Patient keeps plaintext identifiers as the system of record. The
// anonymized and encrypted columns are derived and may be NULL on rows that
// predate them or have not been processed yet.
type Patient struct {
	Id                int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name              string    `json:"name"`
	Contact           string    `json:"contact"`
	Diagnosis         string    `json:"diagnosis"`
	AnonymizedName    *string   `json:"anonymizedName" gorm:"column:anonymized_name"`
	AnonymizedContact *string   `json:"anonymizedContact" gorm:"column:anonymized_contact"`
	EncryptedName     *string   `json:"-" gorm:"column:encrypted_name"`
	EncryptedContact  *string   `json:"-" gorm:"column:encrypted_contact"`
	CreatedAt         Timestamp `json:"createdAt" gorm:"column:created_at;autoCreateTime:false"`
}

// LogEntry is one audit record. Rows are only ever inserted, and removed by
// the retention sweep.
type LogEntry struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt Timestamp `json:"createdAt" gorm:"column:created_at;autoCreateTime:false"`
}

func (LogEntry) TableName() string {
	return "logs"
}

type Setting struct {
	Id    int    `json:"id" form:"id" gorm:"primaryKey;autoIncrement"`
	Key   string `json:"key" form:"key"`
	Value string `json:"value" form:"value"`
}

type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"not null"`
	AppliedAt Timestamp `gorm:"column:applied_at;autoCreateTime:false"`
}

// StringPtr returns nil for ok == false, else a pointer to s. Handy for the
// nullable derived columns.
func StringPtr(s string, ok bool) *string {
	if !ok {
		return nil
	}
	return &s
}
