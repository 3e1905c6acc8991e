package docs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

type document struct {
	Paths       map[string]map[string]operation `json:"paths"`
	Definitions map[string]json.RawMessage      `json:"definitions"`
}

type operation struct {
	Responses map[string]struct {
		Schema *struct {
			Ref string `json:"$ref"`
		} `json:"schema"`
	} `json:"responses"`
}

// annotatedRoute is what the handler comments declare for one operation.
type annotatedRoute struct {
	path, method string
	// responses maps status code to the response type, empty when the
	// annotation carries no body.
	responses map[string]string
}

var (
	routerLine   = regexp.MustCompile(`@Router\s+(\S+)\s+\[(\w+)\]`)
	responseLine = regexp.MustCompile(`@(?:Success|Failure)\s+(\d{3})(?:\s+\{object\}\s+(\S+))?`)
	refPattern   = regexp.MustCompile(`"\$ref":\s*"#/definitions/([^"]+)"`)
)

func loadDocument(t *testing.T) (document, string) {
	t.Helper()
	raw := SwaggerInfo.ReadDoc()
	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("rendered document is not valid JSON: %v", err)
	}
	return doc, raw
}

// handlerRoutes collects the swag annotations from the handler sources. Each
// comment block ends at its @Router line.
func handlerRoutes(t *testing.T) []annotatedRoute {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("..", "api", "handler", "*.go"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}

	var routes []annotatedRoute
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		src, err := os.ReadFile(name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		responses := map[string]string{}
		for _, line := range strings.Split(string(src), "\n") {
			if m := responseLine.FindStringSubmatch(line); m != nil {
				responses[m[1]] = qualify(m[2])
				continue
			}
			if m := routerLine.FindStringSubmatch(line); m != nil {
				routes = append(routes, annotatedRoute{path: m[1], method: m[2], responses: responses})
				responses = map[string]string{}
			}
		}
	}
	if len(routes) == 0 {
		t.Fatal("no annotated routes found")
	}
	return routes
}

func qualify(typ string) string {
	if typ == "" || strings.Contains(typ, ".") {
		return typ
	}
	return "handler." + typ
}

func TestDocs_MatchHandlerAnnotations(t *testing.T) {
	doc, _ := loadDocument(t)

	for _, r := range handlerRoutes(t) {
		op, ok := doc.Paths[r.path][r.method]
		if !ok {
			t.Errorf("%s %s is annotated but missing from the document", strings.ToUpper(r.method), r.path)
			continue
		}
		if len(op.Responses) != len(r.responses) {
			t.Errorf("%s %s: document lists %d responses, annotations %d", r.method, r.path, len(op.Responses), len(r.responses))
		}
		for code, typ := range r.responses {
			got, ok := op.Responses[code]
			if !ok {
				t.Errorf("%s %s: response %s missing", r.method, r.path, code)
				continue
			}
			var ref string
			if got.Schema != nil {
				ref = strings.TrimPrefix(got.Schema.Ref, "#/definitions/")
			}
			if ref != typ {
				t.Errorf("%s %s %s: schema %q, annotation %q", r.method, r.path, code, ref, typ)
			}
		}
	}
}

func TestDocs_NoUnannotatedOperations(t *testing.T) {
	doc, _ := loadDocument(t)

	annotated := map[string]bool{}
	for _, r := range handlerRoutes(t) {
		annotated[r.method+" "+r.path] = true
	}
	for path, ops := range doc.Paths {
		for method := range ops {
			if !annotated[method+" "+path] {
				t.Errorf("%s %s is documented but no handler declares it", method, path)
			}
		}
	}
}

func TestDocs_ReferencesResolve(t *testing.T) {
	doc, raw := loadDocument(t)

	for _, m := range refPattern.FindAllStringSubmatch(raw, -1) {
		if _, ok := doc.Definitions[m[1]]; !ok {
			t.Errorf("reference to undefined definition %q", m[1])
		}
	}
}
