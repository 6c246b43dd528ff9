package report

import (
	"strings"
	"time"
)

// FileName returns GMP_Audit_<name>_<YYYY-MM-DD>.pdf, replacing every rune
// outside [A-Za-z0-9] with '_'. A blank name becomes "Company".
func FileName(companyName string, now time.Time) string {
	if strings.TrimSpace(companyName) == "" {
		companyName = "Company"
	}
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, companyName)
	return "GMP_Audit_" + safe + "_" + now.Format("2006-01-02") + ".pdf"
}
