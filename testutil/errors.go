package testutil

// SameErrorString reports whether err and target are both nil or print the
// same message, for errors rebuilt by wrapping.
func SameErrorString(err, target error) bool {
	if err == nil || target == nil {
		return err == target
	}
	return err.Error() == target.Error()
}
