package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/lintexec/language"
	"github.com/viant/lintexec/model"
)

func testToken(t *testing.T, orgID string) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	claims, err := json.Marshal(map[string]interface{}{"organization": map[string]string{"id": orgID, "name": "Acme"}})
	require.NoError(t, err)
	return header + "." + base64.RawURLEncoding.EncodeToString(claims) + ".signature"
}

func testAPIKey(t *testing.T, host, jwt string) string {
	t.Helper()
	data, err := json.Marshal(map[string]string{"host": host, "jwt": jwt})
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(data)
}

func TestDecodeAPIKey(t *testing.T) {
	var testCases = []struct {
		description string
		apiKey      string
		expectHost  string
		expectOrg   string
		expectErr   error
	}{
		{
			description: "valid key",
			apiKey:      testAPIKey(t, "https://app.example.com/", testToken(t, "org-1")),
			expectHost:  "https://app.example.com",
			expectOrg:   "org-1",
		},
		{description: "empty key", apiKey: "  ", expectErr: ErrNotLoggedIn},
		{description: "not base64", apiKey: "%%%", expectErr: ErrInvalidAPIKey},
		{description: "missing host", apiKey: testAPIKey(t, "", testToken(t, "org-1")), expectErr: ErrInvalidAPIKey},
		{description: "missing jwt", apiKey: testAPIKey(t, "https://x", ""), expectErr: ErrInvalidAPIKey},
		{description: "malformed jwt", apiKey: testAPIKey(t, "https://x", "abc"), expectErr: ErrInvalidAPIKey},
		{description: "jwt without organization", apiKey: testAPIKey(t, "https://x", testToken(t, "")), expectErr: ErrInvalidAPIKey},
	}
	for _, testCase := range testCases {
		credentials, err := DecodeAPIKey(testCase.apiKey)
		if testCase.expectErr != nil {
			assert.ErrorIs(t, err, testCase.expectErr, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expectHost, credentials.Host, testCase.description)
		assert.Equal(t, testCase.expectOrg, credentials.OrganizationID, testCase.description)
	}
}

func TestHTTPClient(t *testing.T) {
	var tracked Execution
	var authorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v0/organizations/org-1/standards/naming/rules/r1/detection-programs/active":
			assert.Equal(t, "TYPESCRIPT", r.URL.Query().Get("language"))
			_, _ = w.Write([]byte(`{"programs":[{"language":"TYPESCRIPT","code":"function checkSourceCode(a){return []}","sourceCodeState":"AST","mode":"SINGLE_AST"}],"ruleContent":"Use camelCase","scope":"src/**, lib/**"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/v0/organizations/org-1/packages/detection-programs":
			assert.EqualValues(t, []string{"backend", "frontend"}, r.URL.Query()["packageSlug"])
			_, _ = w.Write([]byte(`{"targets":[{"name":"Default","path":"/","standards":[{"name":"Naming","slug":"naming","scope":["src/**"],"rules":[]}]}]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/v0/organizations/org-1/linter/track":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&tracked))
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/api/v0/organizations/org-1/standards/missing/rules/r1/detection-programs/draft":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"standard missing not found"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	apiKey := testAPIKey(t, server.URL, testToken(t, "org-1"))
	client, err := NewHTTPClient(apiKey)
	require.NoError(t, err)
	ctx := context.Background()

	programs, err := client.GetActiveDetectionProgramForRule(ctx, RuleQuery{StandardSlug: "naming", RuleID: "r1", Language: language.TypeScript})
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+apiKey, authorization)
	require.Len(t, programs.Programs, 1)
	assert.Equal(t, language.TypeScript, programs.Programs[0].Language)
	assert.Equal(t, model.SourceCodeAST, programs.Programs[0].SourceCodeState)
	assert.Equal(t, "Use camelCase", programs.RuleContent)
	assert.EqualValues(t, model.Scope{"src/**", "lib/**"}, programs.Scope)

	packages, err := client.GetDetectionProgramsForPackages(ctx, PackagesQuery{PackagesSlugs: []string{"backend", "frontend"}})
	require.NoError(t, err)
	require.Len(t, packages.Targets, 1)
	assert.Equal(t, "naming", packages.Targets[0].Standards[0].Slug)

	require.NoError(t, client.TrackLinterExecution(ctx, Execution{TargetCount: 2, StandardCount: 3}))
	assert.Equal(t, Execution{TargetCount: 2, StandardCount: 3}, tracked)

	_, err = client.GetDraftDetectionProgramForRule(ctx, RuleQuery{StandardSlug: "missing", RuleID: "r1"})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "standard missing not found", statusErr.Message)

	_, err = client.GetActiveDetectionProgramForRule(ctx, RuleQuery{RuleID: "r1"})
	assert.Error(t, err)
	_, err = client.GetDetectionProgramsForPackages(ctx, PackagesQuery{})
	assert.Error(t, err)
}

func TestHTTPClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	host := server.URL
	server.Close()

	client, err := NewHTTPClient(testAPIKey(t, host, testToken(t, "org-1")))
	require.NoError(t, err)
	_, err = client.GetDetectionProgramsForPackages(context.Background(), PackagesQuery{PackagesSlugs: []string{"a"}})
	assert.ErrorIs(t, err, ErrServerUnreachable)
}

const catalogYAML = `
standards:
  - name: Naming
    slug: naming
    scope: "src/**, lib/**"
    rules:
      - id: r1
        content: Use camelCase
        programs:
          - language: TYPESCRIPT
            code: "function checkSourceCode(ast) { return []; }"
          - language: JAVASCRIPT
            severity: warning
            code: "function checkSourceCode(ast) { return []; }"
        drafts:
          - language: TYPESCRIPT
            code: "function checkSourceCode(ast) { return [1]; }"
            sourceCodeState: RAW
  - slug: logging
    rules:
      - id: no-console
        content: No console.log
        programs:
          - language: JAVASCRIPT
            code: "function checkSourceCode(ast) { return []; }"
packages:
  - slug: backend
    standards: [naming, logging]
  - slug: frontend
    standards: [naming]
`

func TestFileGateway(t *testing.T) {
	catalog, err := DecodeCatalog([]byte(catalogYAML))
	require.NoError(t, err)
	gateway := NewFileGateway(catalog)
	ctx := context.Background()

	var testCases = []struct {
		description   string
		query         RuleQuery
		draft         bool
		expectCount   int
		expectContent string
		expectErr     error
	}{
		{description: "active all languages", query: RuleQuery{StandardSlug: "naming", RuleID: "r1"}, expectCount: 2, expectContent: "Use camelCase"},
		{description: "active filtered by language", query: RuleQuery{StandardSlug: "naming", RuleID: "r1", Language: language.JavaScript}, expectCount: 1, expectContent: "Use camelCase"},
		{description: "draft", query: RuleQuery{StandardSlug: "naming", RuleID: "r1"}, draft: true, expectCount: 1, expectContent: "Use camelCase"},
		{description: "no programs for language", query: RuleQuery{StandardSlug: "naming", RuleID: "r1", Language: language.Python}, expectCount: 0, expectContent: "Use camelCase"},
		{description: "unknown standard", query: RuleQuery{StandardSlug: "x", RuleID: "r1"}, expectErr: ErrStandardNotFound},
		{description: "unknown rule", query: RuleQuery{StandardSlug: "naming", RuleID: "x"}, expectErr: ErrRuleNotFound},
	}
	for _, testCase := range testCases {
		var programs *RulePrograms
		if testCase.draft {
			programs, err = gateway.GetDraftDetectionProgramForRule(ctx, testCase.query)
		} else {
			programs, err = gateway.GetActiveDetectionProgramForRule(ctx, testCase.query)
		}
		if testCase.expectErr != nil {
			assert.ErrorIs(t, err, testCase.expectErr, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.Len(t, programs.Programs, testCase.expectCount, testCase.description)
		assert.Equal(t, testCase.expectContent, programs.RuleContent, testCase.description)
		assert.EqualValues(t, model.Scope{"src/**", "lib/**"}, programs.Scope, testCase.description)
	}

	packages, err := gateway.GetDetectionProgramsForPackages(ctx, PackagesQuery{PackagesSlugs: []string{"backend", "frontend"}})
	require.NoError(t, err)
	require.Len(t, packages.Targets, 1)
	target := packages.Targets[0]
	assert.Equal(t, "/", target.Path)
	require.Len(t, target.Standards, 2)
	assert.Equal(t, "naming", target.Standards[0].Slug)
	assert.Equal(t, "logging", target.Standards[1].Name)
	require.Len(t, target.Standards[0].Rules, 1)
	programs := target.Standards[0].Rules[0].ActiveDetectionPrograms
	require.Len(t, programs, 2)
	assert.Equal(t, model.SeverityWarning, programs[1].Severity)
	assert.Equal(t, language.JavaScript, programs[1].DetectionProgram.Language)

	_, err = gateway.GetDetectionProgramsForPackages(ctx, PackagesQuery{PackagesSlugs: []string{"unknown"}})
	assert.ErrorIs(t, err, ErrPackageNotFound)

	require.NoError(t, gateway.TrackLinterExecution(ctx, Execution{TargetCount: 1, StandardCount: 2}))
	assert.Equal(t, []Execution{{TargetCount: 1, StandardCount: 2}}, gateway.Executions())
}

func TestDecodeCatalog_Invalid(t *testing.T) {
	_, err := DecodeCatalog([]byte("standards:\n  - name: no slug\n"))
	assert.Error(t, err)
	_, err = DecodeCatalog([]byte("standards: ["))
	assert.Error(t, err)
}

type countingGateway struct {
	Gateway
	packages int32
	active   int32
	release  chan struct{}
}

func (g *countingGateway) GetDetectionProgramsForPackages(ctx context.Context, query PackagesQuery) (*PackagesPrograms, error) {
	atomic.AddInt32(&g.packages, 1)
	if g.release != nil {
		<-g.release
	}
	return &PackagesPrograms{Targets: []model.Target{{Name: PackagesKey(query.PackagesSlugs), Path: "/"}}}, nil
}

func (g *countingGateway) GetActiveDetectionProgramForRule(ctx context.Context, query RuleQuery) (*RulePrograms, error) {
	if atomic.AddInt32(&g.active, 1) == 1 {
		return nil, errors.New("transient")
	}
	return &RulePrograms{RuleContent: query.RuleID}, nil
}

func TestMemoize(t *testing.T) {
	upstream := &countingGateway{}
	memo := Memoize(upstream)
	ctx := context.Background()

	first, err := memo.GetDetectionProgramsForPackages(ctx, PackagesQuery{PackagesSlugs: []string{"b", "a"}})
	require.NoError(t, err)
	second, err := memo.GetDetectionProgramsForPackages(ctx, PackagesQuery{PackagesSlugs: []string{"a", "b", "a"}})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, "a,b", first.Targets[0].Name)
	assert.EqualValues(t, 1, atomic.LoadInt32(&upstream.packages))

	_, err = memo.GetDetectionProgramsForPackages(ctx, PackagesQuery{PackagesSlugs: []string{"c"}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&upstream.packages))

	_, err = memo.GetActiveDetectionProgramForRule(ctx, RuleQuery{StandardSlug: "s", RuleID: "r"})
	assert.Error(t, err)
	programs, err := memo.GetActiveDetectionProgramForRule(ctx, RuleQuery{StandardSlug: "s", RuleID: "r"})
	require.NoError(t, err)
	assert.Equal(t, "r", programs.RuleContent)
}

func TestMemoize_Concurrent(t *testing.T) {
	upstream := &countingGateway{release: make(chan struct{})}
	memo := Memoize(upstream)

	var wg sync.WaitGroup
	results := make([]*PackagesPrograms, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := memo.GetDetectionProgramsForPackages(context.Background(), PackagesQuery{PackagesSlugs: []string{"x", "y"}})
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	close(upstream.release)
	wg.Wait()
	for _, result := range results {
		assert.Same(t, results[0], result)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&upstream.packages))
}

func TestPackagesKey(t *testing.T) {
	assert.Equal(t, "a,b,c", PackagesKey([]string{"c", "a", "b", "a"}))
	assert.Equal(t, "", PackagesKey(nil))
}
