package handlers

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// githubUsernamePattern matches valid GitHub account names: 1-39
// alphanumerics and hyphens, no leading or trailing hyphen. Consecutive
// hyphens are checked separately since Go regexps lack lookahead.
var githubUsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,37}[a-zA-Z0-9])?$`)

func validGitHubUsername(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if strings.Contains(name, "--") {
		return false
	}
	return githubUsernamePattern.MatchString(name)
}

// RegisterValidators installs the custom binding rules the request DTOs
// in this package rely on.
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("github_username", validGitHubUsername)
}
