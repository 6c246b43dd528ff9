package audit

import (
	"fmt"
	"strings"
)

// CompanyInfo holds the free-text header fields of an audit.
// Every field is optional; empty means "omit from output".
type CompanyInfo struct {
	AuditeeName            string `json:"auditeeName"`
	AuditeeAddress         string `json:"auditeeAddress"`
	AuditorName            string `json:"auditorName"`
	AuditorAddress         string `json:"auditorAddress"`
	AuditStartDate         string `json:"auditStartDate"`
	AuditEndDate           string `json:"auditEndDate"`
	AuditeeContactName     string `json:"auditeeContactName"`
	AuditeeContactFunction string `json:"auditeeContactFunction"`
	QualityAuditorNames    string `json:"qualityAuditorNames"`
}

// Field names as used by the shell, the API and persistence.
const (
	FieldAuditeeName            = "auditeeName"
	FieldAuditeeAddress         = "auditeeAddress"
	FieldAuditorName            = "auditorName"
	FieldAuditorAddress         = "auditorAddress"
	FieldAuditStartDate         = "auditStartDate"
	FieldAuditEndDate           = "auditEndDate"
	FieldAuditeeContactName     = "auditeeContactName"
	FieldAuditeeContactFunction = "auditeeContactFunction"
	FieldQualityAuditorNames    = "qualityAuditorNames"
)

// CompanyFields lists every field name in form order.
var CompanyFields = []string{
	FieldAuditeeName,
	FieldAuditeeAddress,
	FieldAuditeeContactName,
	FieldAuditeeContactFunction,
	FieldAuditorName,
	FieldAuditorAddress,
	FieldQualityAuditorNames,
	FieldAuditStartDate,
	FieldAuditEndDate,
}

// SensitiveFields are sealed at rest when storage encryption is enabled.
var SensitiveFields = []string{
	FieldAuditeeName,
	FieldAuditeeAddress,
	FieldAuditorName,
	FieldAuditorAddress,
	FieldAuditeeContactName,
	FieldQualityAuditorNames,
}

func (c *CompanyInfo) ptr(field string) (*string, bool) {
	switch strings.ToLower(field) {
	case "auditeename":
		return &c.AuditeeName, true
	case "auditeeaddress":
		return &c.AuditeeAddress, true
	case "auditorname":
		return &c.AuditorName, true
	case "auditoraddress":
		return &c.AuditorAddress, true
	case "auditstartdate":
		return &c.AuditStartDate, true
	case "auditenddate":
		return &c.AuditEndDate, true
	case "auditeecontactname":
		return &c.AuditeeContactName, true
	case "auditeecontactfunction":
		return &c.AuditeeContactFunction, true
	case "qualityauditornames":
		return &c.QualityAuditorNames, true
	}
	return nil, false
}

// Get returns the value of a field by name (case-insensitive).
func (c *CompanyInfo) Get(field string) (string, error) {
	p, ok := c.ptr(field)
	if !ok {
		return "", fmt.Errorf("unknown company field %q", field)
	}
	return *p, nil
}

// Set assigns a field by name (case-insensitive).
func (c *CompanyInfo) Set(field, value string) error {
	p, ok := c.ptr(field)
	if !ok {
		return fmt.Errorf("unknown company field %q", field)
	}
	*p = value
	return nil
}

// IsEmpty reports whether no field carries a non-blank value.
func (c *CompanyInfo) IsEmpty() bool {
	return c.PopulatedCount(CompanyFields) == 0
}

// PopulatedCount counts the named fields with a non-blank value.
func (c *CompanyInfo) PopulatedCount(fields []string) int {
	n := 0
	for _, f := range fields {
		if v, err := c.Get(f); err == nil && strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// ContactDisplay joins contact name and function as "Name (Function)".
func (c *CompanyInfo) ContactDisplay() string {
	name := strings.TrimSpace(c.AuditeeContactName)
	fn := strings.TrimSpace(c.AuditeeContactFunction)
	switch {
	case name == "":
		return ""
	case fn == "":
		return name
	default:
		return name + " (" + fn + ")"
	}
}
