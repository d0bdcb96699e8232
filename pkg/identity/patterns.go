// Package identity rewrites the application identity inside a working copy.
//
// Every edit goes through a Pattern: a regular expression whose "value" group
// (or first group) marks the span that is replaced. Bytes outside that span
// are never touched.
package identity

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Pattern locates one identity token inside a text file
type Pattern struct {
	Name   string
	Regexp *regexp.Regexp
	// Encode converts a raw value into the file's literal syntax. Nil writes the value as is.
	Encode func(value string) string
}

// NewPattern compiles expr; it panics on invalid expressions like regexp.MustCompile
func NewPattern(name, expr string, encode func(string) string) *Pattern {
	re := regexp.MustCompile(expr)
	if re.NumSubexp() < 1 {
		panic(fmt.Sprintf("identity: pattern %s has no capture group", name))
	}
	return &Pattern{Name: name, Regexp: re, Encode: encode}
}

func (p *Pattern) group() int {
	if idx := p.Regexp.SubexpIndex("value"); idx > 0 {
		return idx
	}
	return 1
}

func (p *Pattern) encode(value string) string {
	if p.Encode == nil {
		return value
	}
	return p.Encode(value)
}

// Find returns the captured value of the first match
func (p *Pattern) Find(content string) (string, bool) {
	loc := p.Regexp.FindStringSubmatchIndex(content)
	g := p.group()
	if loc == nil || loc[2*g] < 0 {
		return "", false
	}
	return content[loc[2*g]:loc[2*g+1]], true
}

// Apply replaces the value of the first match and returns the count (0 or 1)
func (p *Pattern) Apply(content, value string) (string, int) {
	loc := p.Regexp.FindStringSubmatchIndex(content)
	g := p.group()
	if loc == nil || loc[2*g] < 0 {
		return content, 0
	}
	return content[:loc[2*g]] + p.encode(value) + content[loc[2*g+1]:], 1
}

// ApplyAll replaces the value of every match
func (p *Pattern) ApplyAll(content, value string) (string, int) {
	return p.ApplyAllFunc(content, func(string) string { return value })
}

// ApplyAllFunc replaces every matched value with fn(old)
func (p *Pattern) ApplyAllFunc(content string, fn func(old string) string) (string, int) {
	matches := p.Regexp.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content, 0
	}

	g := p.group()
	var b strings.Builder
	b.Grow(len(content))
	last, n := 0, 0
	for _, loc := range matches {
		start, end := loc[2*g], loc[2*g+1]
		if start < 0 {
			continue
		}
		b.WriteString(content[last:start])
		b.WriteString(p.encode(fn(content[start:end])))
		last = end
		n++
	}
	b.WriteString(content[last:])
	return b.String(), n
}

// Encoders

func xmlEscape(value string) string {
	return html.EscapeString(value)
}

func dartString(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `$`, `\$`, "\n", `\n`)
	return "'" + r.Replace(value) + "'"
}

var pbxBareValue = regexp.MustCompile(`^[A-Za-z0-9_./$]+$`)

func pbxValue(value string) string {
	if pbxBareValue.MatchString(value) {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}

// Platform A patterns
var (
	ManifestPackage = NewPattern("manifest package",
		`\bpackage\s*=\s*"([^"]*)"`, nil)
	ApplicationLabel = NewPattern("application label",
		`<application\b[^>]*?\bandroid:label\s*=\s*"([^"]*)"`, xmlEscape)
	GradleApplicationID = NewPattern("applicationId",
		`\bapplicationId\s*=?\s*["']([^"']+)["']`, nil)
	GradleNamespace = NewPattern("namespace",
		`\bnamespace\s*=?\s*["']([^"']+)["']`, nil)
	SourcePackage = NewPattern("package declaration",
		`(?m)^[ \t]*package[ \t]+([A-Za-z_][A-Za-z0-9_.]*)`, nil)
)

// QualifiedReference matches id as a whole dotted name, so com.acme does not match com.acmex.
func QualifiedReference(id string) *Pattern {
	return NewPattern("reference to "+id,
		`(?:^|[^A-Za-z0-9_.])(?P<value>`+regexp.QuoteMeta(id)+`)\b`, nil)
}

// Platform B patterns
var (
	PlistBundleIdentifier = plistString("CFBundleIdentifier")
	PlistDisplayName      = plistString("CFBundleDisplayName")
	PodfilePlatform       = NewPattern("podfile platform",
		`(?m)^(#?[ \t]*platform[ \t]+:ios[ \t]*,[ \t]*['"][^'"]*['"])`, nil)
	PbxDevelopmentTeam  = pbxSetting("DEVELOPMENT_TEAM")
	PbxCodeSignStyle    = pbxSetting("CODE_SIGN_STYLE")
	PbxCodeSignIdentity = NewPattern("CODE_SIGN_IDENTITY",
		`"?CODE_SIGN_IDENTITY(?:\[sdk=[^\]]*\])?"?\s*=\s*("[^"]*"|[^;"\s]*)\s*;`, pbxValue)
	PbxProductBundleIdentifier = pbxSetting("PRODUCT_BUNDLE_IDENTIFIER")
)

func plistString(key string) *Pattern {
	return NewPattern(key,
		`<key>`+regexp.QuoteMeta(key)+`</key>\s*<string>([^<]*)</string>`, xmlEscape)
}

func pbxSetting(key string) *Pattern {
	return NewPattern(key,
		`\b`+regexp.QuoteMeta(key)+`\s*=\s*("[^"]*"|[^;"\s]*)\s*;`, pbxValue)
}

// Shared patterns
var (
	PubspecVersion = NewPattern("pubspec version",
		`(?m)^version:[ \t]*([^\s#]+)`, nil)
)

// DartIntConstant matches `const|final|var [type] name = 123`
func DartIntConstant(name string) *Pattern {
	return NewPattern("dart int "+name,
		`\b(?:const|final|var)\s+(?:int\s+)?`+regexp.QuoteMeta(name)+`\s*=\s*(-?\d+)`, nil)
}

// DartStringConstant matches `const|final|var [type] name = '...'` including the quotes
func DartStringConstant(name string) *Pattern {
	return NewPattern("dart string "+name,
		`\b(?:const|final|var)\s+(?:String\s+)?`+regexp.QuoteMeta(name)+`\s*=\s*('(?:[^'\\\n]|\\.)*'|"(?:[^"\\\n]|\\.)*")`,
		dartString)
}
