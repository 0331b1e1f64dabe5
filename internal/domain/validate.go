package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	FieldRating  = "likelihoodToRecommend"
	FieldComment = "comments"
	FieldEmail   = "email"
)

const (
	MsgRatingRange    = "Likelihood to recommend must be between 0 and 10."
	MsgCommentTooLong = "Comments must not exceed 1000 characters."
	MsgCommentUnsafe  = "Comments contain invalid characters."
	MsgEmailShape     = "Email must be a valid email address."
	MsgEmailTooLong   = "Email must not exceed 255 characters."
	MsgEmailFormat    = "Email format is invalid."
)

// Comments losing more than this share of characters to sanitization are rejected.
const maxStripRatio = 0.20

// Custom validation tags.
const (
	tagSafeText    = "safetext"
	tagEmailShape  = "emailshape"
	tagStrictEmail = "strictemail"
)

var (
	markupPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?s)<[^>]+>`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)on\w+\s*=`),
	}
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// Each field is checked against its tag groups one at a time. The library
// stops at the first failing tag of a group, so rules that must be reported
// together live in separate groups.
var (
	ratingRules      = []string{fmt.Sprintf("min=%d,max=%d", MinRating, MaxRating)}
	commentLenRule   = fmt.Sprintf("omitempty,max=%d", MaxCommentLength)
	strictSafetyRule = `omitempty,excludesall=&"',` + tagSafeText
	looseSafetyRule  = "omitempty," + tagSafeText
	emailRules       = []string{
		"omitempty," + tagEmailShape,
		fmt.Sprintf("omitempty,max=%d", MaxEmailLength),
		"omitempty," + tagStrictEmail,
	}
)

// messages maps field and failing tag to the user-facing message.
var messages = map[string]string{
	FieldRating + ".min":              MsgRatingRange,
	FieldRating + ".max":              MsgRatingRange,
	FieldComment + ".max":             MsgCommentTooLong,
	FieldComment + ".excludesall":     MsgCommentUnsafe,
	FieldComment + "." + tagSafeText:  MsgCommentUnsafe,
	FieldEmail + "." + tagEmailShape:  MsgEmailShape,
	FieldEmail + ".max":               MsgEmailTooLong,
	FieldEmail + "." + tagStrictEmail: MsgEmailFormat,
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation(tagSafeText, func(fl validator.FieldLevel) bool {
		return isMarkupFree(fl.Field().String())
	})
	_ = v.RegisterValidation(tagEmailShape, func(fl validator.FieldLevel) bool {
		return hasEmailShape(fl.Field().String())
	})
	_ = v.RegisterValidation(tagStrictEmail, func(fl validator.FieldLevel) bool {
		return IsStrictEmail(fl.Field().String())
	})
	return v
}

type ValidationResult struct {
	Valid       bool                `json:"valid"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
}

// Err returns nil for a valid result, otherwise a *ValidationError.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return NewValidationError(r.FieldErrors)
}

// Validator checks a Submission without mutating it. The zero value is strict:
// ampersands and quotes in comments are rejected.
type Validator struct {
	AllowPunctuation bool
}

var DefaultValidator = Validator{}

func Validate(s Submission) ValidationResult { return DefaultValidator.Validate(s) }

// Validate evaluates every rule and reports all violations together.
func (v Validator) Validate(s Submission) ValidationResult {
	errs := map[string][]string{}
	check := func(field string, value any, groups ...string) {
		for _, g := range groups {
			for _, tag := range failedTags(value, g) {
				errs[field] = append(errs[field], message(field, tag))
			}
		}
	}

	check(FieldRating, s.LikelihoodToRecommend, ratingRules...)
	check(FieldComment, s.Comments, commentLenRule, v.safetyRule())
	check(FieldEmail, s.Email, emailRules...)

	if len(errs) == 0 {
		return ValidationResult{Valid: true}
	}
	return ValidationResult{Valid: false, FieldErrors: errs}
}

// IsSafeText rejects markup, script URLs, inline handlers and text that
// sanitization would gut.
func (v Validator) IsSafeText(s string) bool {
	return len(failedTags(s, v.safetyRule())) == 0
}

func (v Validator) safetyRule() string {
	if v.AllowPunctuation {
		return looseSafetyRule
	}
	return strictSafetyRule
}

func failedTags(value any, rule string) []string {
	err := validate.Var(value, rule)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []string{rule}
	}
	tags := make([]string, 0, len(ves))
	for _, fe := range ves {
		tags = append(tags, fe.Tag())
	}
	return tags
}

func message(field, tag string) string {
	if m, ok := messages[field+"."+tag]; ok {
		return m
	}
	return fmt.Sprintf("%s is invalid.", field)
}

func isMarkupFree(s string) bool {
	for _, p := range markupPatterns {
		if p.MatchString(s) {
			return false
		}
	}
	return StripRatio(s) <= maxStripRatio
}

// hasEmailShape is the loose check: exactly one '@' with text on both sides.
func hasEmailShape(s string) bool {
	at := strings.IndexByte(s, '@')
	return at > 0 && at < len(s)-1 && at == strings.LastIndexByte(s, '@')
}

// IsStrictEmail matches local@domain.tld over a restricted alphabet with no
// consecutive dots in either part.
func IsStrictEmail(s string) bool {
	if !emailPattern.MatchString(s) {
		return false
	}
	local, domain, _ := strings.Cut(s, "@")
	return !strings.Contains(local, "..") && !strings.Contains(domain, "..")
}
