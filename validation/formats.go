package validation

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

var registerFormats sync.Once

var (
	hostnameLabel = regexp.MustCompile(`^(?i)[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)
	timeOfDay     = regexp.MustCompile(`^(?i)([01]\d|2[0-3]):[0-5]\d:([0-5]\d|60)(\.\d+)?(z|[+-]([01]\d|2[0-3]):?[0-5]\d)?$`)
	jsonPointer   = regexp.MustCompile(`^(?:/(?:[^~/]|~0|~1)*)*$`)
)

// ensureFormats registers the string formats validated alongside the built-in
// date, date-time and byte formats. kin-openapi keeps formats in a package
// level table, so registration happens once per process.
func ensureFormats() {
	registerFormats.Do(func() {
		openapi3.DefineStringFormat("email", openapi3.FormatOfStringForEmail)
		openapi3.DefineStringFormat("uuid", openapi3.FormatOfStringForUUIDOfRFC4122)
		openapi3.DefineIPv4Format()
		openapi3.DefineIPv6Format()
		openapi3.DefineStringFormatCallback("uri", validateURI)
		openapi3.DefineStringFormatCallback("uri-reference", validateURIReference)
		openapi3.DefineStringFormatCallback("hostname", validateHostname)
		openapi3.DefineStringFormatCallback("time", validateTime)
		openapi3.DefineStringFormatCallback("json-pointer", validateJSONPointer)
		openapi3.DefineStringFormatCallback("regex", validateRegex)
	})
}

// validateURI requires an absolute URI with a scheme.
func validateURI(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if !u.IsAbs() || strings.ContainsAny(s, " \t\n") {
		return errors.New("not an absolute URI")
	}
	return nil
}

func validateURIReference(s string) error {
	if strings.ContainsAny(s, " \t\n") {
		return errors.New("not a URI reference")
	}
	_, err := url.Parse(s)
	return err
}

func validateHostname(s string) error {
	name := strings.TrimSuffix(s, ".")
	if name == "" || len(name) > 253 {
		return errors.New("not a hostname")
	}
	for _, label := range strings.Split(name, ".") {
		if !hostnameLabel.MatchString(label) {
			return errors.New("not a hostname")
		}
	}
	return nil
}

func validateTime(s string) error {
	if !timeOfDay.MatchString(s) {
		return errors.New("not a time")
	}
	return nil
}

func validateJSONPointer(s string) error {
	if !jsonPointer.MatchString(s) {
		return errors.New("not a JSON pointer")
	}
	return nil
}

func validateRegex(s string) error {
	_, err := regexp.Compile(s)
	return err
}
