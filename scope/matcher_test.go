package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/lintexec/scope"
)

func TestEffectivePattern(t *testing.T) {
	testCases := []struct {
		description string
		target      string
		scope       string
		expected    string
	}{
		{description: "root without scope", target: "/", scope: "", expected: "/**"},
		{description: "target without scope", target: "/backend/", scope: "", expected: "/backend/**"},
		{description: "scope rooted at target", target: "/backend/src", scope: "/backend/src/**/*.ts", expected: "/backend/src/**/*.ts"},
		{description: "scope equal to target", target: "/backend", scope: "/backend", expected: "/backend"},
		{description: "rooted directory scope", target: "/backend", scope: "/backend/test/", expected: "/backend/test/**"},
		{description: "leading slash stripped", target: "/backend", scope: "/**/*.spec.ts", expected: "/backend/**/*.spec.ts"},
		{description: "relative glob", target: "/backend/", scope: "**/*.spec.ts", expected: "/backend/**/*.spec.ts"},
		{description: "relative directory pattern", target: "/backend", scope: "test/**/*.spec.ts", expected: "/backend/test/**/*.spec.ts"},
		{description: "directory scope", target: "/backend/src", scope: "/infra/", expected: "/backend/src/infra/**"},
		{description: "root target relative scope", target: "/", scope: "src/**", expected: "/src/**"},
		{description: "root target absolute scope", target: "/", scope: "/src/", expected: "/src/**"},
		{description: "sibling prefix is not rooted", target: "/back", scope: "/backend/x", expected: "/back/backend/x"},
	}
	for _, testCase := range testCases {
		actual := scope.EffectivePattern(testCase.target, testCase.scope)
		assert.Equal(t, testCase.expected, actual, testCase.description)
		assert.Equal(t, actual, scope.EffectivePattern(testCase.target, actual), "idempotent: "+testCase.description)
	}
}

func TestMatches(t *testing.T) {
	testCases := []struct {
		description string
		file        string
		target      string
		scope       []string
		expected    bool
	}{
		{description: "includes all files (Ex 1)", file: "/frontend/src/file.js", target: "/", expected: true},
		{description: "includes file in target path (Ex 2)", file: "/frontend/src/file.js", target: "/frontend/src/", expected: true},
		{description: "excludes file not in target path (Ex 3)", file: "/frontend/src/file.js", target: "/backend/", expected: false},
		{description: "concatenates target and scope (Ex 4)", file: "/backend/test/file.spec.ts", target: "/backend/", scope: []string{"**/*.spec.ts"}, expected: true},
		{description: "excludes file not matching concatenated pattern (Ex 5)", file: "/backend/src/file.ts", target: "/backend/", scope: []string{"test/**/*.spec.ts"}, expected: false},
		{description: "strips leading slash (Ex 6)", file: "/backend/test/file.spec.ts", target: "/backend/", scope: []string{"/**/*.spec.ts"}, expected: true},
		{description: "uses scope alone (Ex 7)", file: "/backend/src/file.ts", target: "/backend/src", scope: []string{"/backend/src/**/*.ts"}, expected: true},
		{description: "excludes file outside rooted scope", file: "/backend/other/file.ts", target: "/backend/src", scope: []string{"/backend/src/**/*.ts"}, expected: false},
		{description: "directory scope with leading slash (Ex 8)", file: "/backend/src/infra/file.ts", target: "/backend/src", scope: []string{"/infra/"}, expected: true},
		{description: "pattern scope with leading slash (Ex 9)", file: "/backend/src/infra/file.ts", target: "/backend/src", scope: []string{"/infra/**/*.ts"}, expected: true},
		{description: "any pattern matches", file: "/project/src/UserAdapter.ts", target: "/", scope: []string{"**/*Hexa.ts", "**/*Adapter.ts"}, expected: true},
		{description: "no pattern matches", file: "/project/src/UserService.ts", target: "/", scope: []string{"**/*Hexa.ts", "**/*Adapter.ts"}, expected: false},
		{description: "single star stays in segment", file: "/src/a/b.ts", target: "/", scope: []string{"/src/*.ts"}, expected: false},
		{description: "relative file path", file: "src/a.ts", target: "/src", expected: true},
	}
	for _, testCase := range testCases {
		actual := scope.Matches(testCase.file, testCase.target, testCase.scope)
		assert.Equal(t, testCase.expected, actual, testCase.description)
	}
}
