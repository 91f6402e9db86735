package merge

import (
	"errors"
	"fmt"
)

// DefaultNameFormat names the merged entry after the reference entry.
const DefaultNameFormat = "Merged %s"

// ValidateNameFormat checks that format contains exactly one %s verb and no
// other verbs besides %%.
func ValidateNameFormat(format string) error {
	verbs := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		if i+1 >= len(format) {
			return errors.New("merge: name format ends with a bare %")
		}
		switch format[i+1] {
		case '%':
		case 's':
			verbs++
		default:
			return fmt.Errorf("merge: name format has unsupported verb %%%c", format[i+1])
		}
		i++
	}
	if verbs != 1 {
		return fmt.Errorf("merge: name format must contain exactly one %%s, found %d", verbs)
	}
	return nil
}

// MergedName applies format to the reference entry name.
func MergedName(format, reference string) string {
	return fmt.Sprintf(format, reference)
}
