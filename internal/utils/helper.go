package utils

func StrPtr(s string) *string {
	return &s
}

func IntPtr(i int) *int {
	return &i
}

func BoolPtr(b bool) *bool {
	return &b
}

func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
