// Package testutil builds miniature Flutter projects for tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TemplateID is the identifier baked into the fixture project
const TemplateID = "com.example.template"

// Files of the fixture, keyed by slash-separated relative path
func TemplateFiles() map[string]string {
	pkgPath := strings.ReplaceAll(TemplateID, ".", "/")
	return map[string]string{
		"pubspec.yaml": "name: template\ndescription: A fixture.\nversion: 1.0.0+7\n\nenvironment:\n  sdk: '>=3.0.0 <4.0.0'\n",
		"lib/config.dart": `// Runtime settings
const int offlineCategoryId = 1;
const String apiUrl = 'https://api.example.com';
const String productId = "com.example.template";
`,
		"android/app/src/main/AndroidManifest.xml": `<manifest xmlns:android="http://schemas.android.com/apk/res/android"
    package="com.example.template">
    <application
        android:label="Template"
        android:icon="@mipmap/ic_launcher">
        <activity android:name=".MainActivity" android:label="Main"/>
    </application>
</manifest>
`,
		"android/app/src/debug/AndroidManifest.xml": `<manifest xmlns:android="http://schemas.android.com/apk/res/android"
    package="com.example.template">
    <uses-permission android:name="android.permission.INTERNET"/>
</manifest>
`,
		"android/app/build.gradle": `android {
    namespace "com.example.template"
    defaultConfig {
        applicationId "com.example.template"
        minSdkVersion flutter.minSdkVersion
        versionCode flutterVersionCode.toInteger()
    }
}
`,
		"android/app/src/main/kotlin/" + pkgPath + "/MainActivity.kt": `package com.example.template

import io.flutter.embedding.android.FlutterActivity
import com.example.template.BuildConfig

class MainActivity: FlutterActivity()
`,
		"ios/Runner/Info.plist": `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleDisplayName</key>
	<string>Template</string>
	<key>CFBundleIdentifier</key>
	<string>$(PRODUCT_BUNDLE_IDENTIFIER)</string>
	<key>CFBundleShortVersionString</key>
	<string>$(FLUTTER_BUILD_NAME)</string>
</dict>
</plist>
`,
		"ios/Flutter/Signing.xcconfig": "OLD_SETTING = 1\n",
		"ios/Podfile":                  "# Uncomment this line to define a global platform for your project\n# platform :ios, '11.0'\n\ntarget 'Runner' do\nend\n",
		"ios/Runner.xcodeproj/project.pbxproj": `		97C147061CF9000F007C117D /* Debug */ = {
			buildSettings = {
				CODE_SIGN_STYLE = Manual;
				DEVELOPMENT_TEAM = OLDTEAM;
				"CODE_SIGN_IDENTITY[sdk=iphoneos*]" = "iPhone Developer";
				PRODUCT_BUNDLE_IDENTIFIER = com.example.template;
			};
		};
		97C147071CF9000F007C117D /* Release */ = {
			buildSettings = {
				CODE_SIGN_STYLE = Manual;
				DEVELOPMENT_TEAM = OLDTEAM;
				"CODE_SIGN_IDENTITY[sdk=iphoneos*]" = "iPhone Developer";
				PRODUCT_BUNDLE_IDENTIFIER = com.example.template;
			};
		};
		331C8088294A63A400263BE5 /* Debug */ = {
			buildSettings = {
				DEVELOPMENT_TEAM = OLDTEAM;
				PRODUCT_BUNDLE_IDENTIFIER = com.example.template.RunnerTests;
			};
		};
`,
	}
}

// WriteTemplate writes the fixture project into dir
func WriteTemplate(t testing.TB, dir string) {
	t.Helper()
	for rel, content := range TemplateFiles() {
		WriteFile(t, filepath.Join(dir, filepath.FromSlash(rel)), content)
	}
}

// WriteFile creates parents and writes content
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadFile returns the file content or fails the test
func ReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
