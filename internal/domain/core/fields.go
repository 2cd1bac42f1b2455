package core

import "cityhr/internal/domain/auth"

// FilterEmployeeFields hides payment and social security details from
// accounts that do not administer the application. Only the last four
// characters stay visible.
func FilterEmployeeFields(emp *Employee, user auth.UserContext) {
	if user.Role == auth.RoleAdmin {
		return
	}
	emp.BankDetails = maskTail(emp.BankDetails)
	emp.SocialSecurityNo = maskTail(emp.SocialSecurityNo)
}

func maskTail(value string) string {
	runes := []rune(value)
	if len(runes) <= 4 {
		return value
	}
	masked := make([]rune, len(runes))
	for i := range runes {
		if i < len(runes)-4 {
			masked[i] = '*'
		} else {
			masked[i] = runes[i]
		}
	}
	return string(masked)
}
