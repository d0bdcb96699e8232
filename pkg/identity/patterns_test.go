package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatternApplyPreservesSurroundingBytes(t *testing.T) {
	content := "  <manifest\tpackage = \"com.old\" >\r\n"

	got, n := ManifestPackage.Apply(content, "com.new")
	assert.Equal(t, 1, n)
	assert.Equal(t, "  <manifest\tpackage = \"com.new\" >\r\n", got)
}

func TestPatternApplyNoMatch(t *testing.T) {
	got, n := GradleApplicationID.Apply("android {}", "com.new")
	assert.Equal(t, 0, n)
	assert.Equal(t, "android {}", got)
}

func TestGradleApplicationIDForms(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"groovy", `applicationId "com.old"`, `applicationId "com.new"`},
		{"groovy single quotes", `applicationId 'com.old'`, `applicationId 'com.new'`},
		{"kts", `applicationId = "com.old"`, `applicationId = "com.new"`},
		{"suffix untouched", `applicationIdSuffix ".dev"`, `applicationIdSuffix ".dev"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := GradleApplicationID.ApplyAll(tt.in, "com.new")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPbxSettingsReplaceEveryOccurrence(t *testing.T) {
	content := "DEVELOPMENT_TEAM = A;\nDEVELOPMENT_TEAM = \"\";\nCODE_SIGN_STYLE = Manual;\n"

	got, n := PbxDevelopmentTeam.ApplyAll(content, "TEAM42")
	assert.Equal(t, 2, n)
	assert.Equal(t, "DEVELOPMENT_TEAM = TEAM42;\nDEVELOPMENT_TEAM = TEAM42;\nCODE_SIGN_STYLE = Manual;\n", got)

	got, _ = PbxCodeSignIdentity.ApplyAll(`"CODE_SIGN_IDENTITY[sdk=iphoneos*]" = "iPhone Developer";`, "Apple Development")
	assert.Equal(t, `"CODE_SIGN_IDENTITY[sdk=iphoneos*]" = "Apple Development";`, got)
}

func TestQualifiedReferenceMatchesWholeNames(t *testing.T) {
	p := QualifiedReference("com.acme")

	got, n := p.ApplyAll("package com.acme\nimport com.acme.R\nimport com.acmex.Other\nval x = \"com.acme,com.acme\"", "org.new")
	assert.Equal(t, 4, n)
	assert.Equal(t, "package org.new\nimport org.new.R\nimport com.acmex.Other\nval x = \"org.new,org.new\"", got)

	_, ok := p.Find("import xcom.acme.R")
	assert.False(t, ok)
}

func TestDartConstants(t *testing.T) {
	content := "const int offlineCategoryId = 1;\nstatic const String apiUrl = \"https://a\";\n"

	got, n := DartIntConstant("offlineCategoryId").Apply(content, "42")
	assert.Equal(t, 1, n)
	got, n = DartStringConstant("apiUrl").Apply(got, "https://b.example/it's")
	assert.Equal(t, 1, n)

	assert.Equal(t, "const int offlineCategoryId = 42;\nstatic const String apiUrl = 'https://b.example/it\\'s';\n", got)
}

func TestPlistValuesAreEscaped(t *testing.T) {
	content := "<key>CFBundleDisplayName</key>\n\t<string>Old</string>"

	got, n := PlistDisplayName.Apply(content, "Tom & Jerry")
	assert.Equal(t, 1, n)
	assert.Equal(t, "<key>CFBundleDisplayName</key>\n\t<string>Tom &amp; Jerry</string>", got)
}

func TestPodfilePlatformUncomments(t *testing.T) {
	got, n := PodfilePlatform.Apply("# platform :ios, '11.0'\n", "platform :ios, '13.0'")
	assert.Equal(t, 1, n)
	assert.Equal(t, "platform :ios, '13.0'\n", got)
}

func TestNewPatternRequiresGroup(t *testing.T) {
	assert.Panics(t, func() { NewPattern("bad", `abc`, nil) })
}
