package loaders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tplforge/tplforge/pkg/errors"
	"github.com/tplforge/tplforge/pkg/report"
	"github.com/tplforge/tplforge/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vars.yml", "name: app\nserver:\n  port: 8080\nitems:\n  - 1\n  - two\n")

	got, err := Load(path, types.Options{}, report.New())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":   "app",
		"server": map[string]any{"port": int64(8080)},
		"items":  []any{int64(1), "two"},
	}, got)
}

func TestLoadYAMLEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.yaml", "")

	got, err := Load(path, types.Options{}, report.New())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadJSONNumbers(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vars.json", `{"count": 3, "ratio": 0.5, "nested": {"big": 9007199254740993}}`)

	got, err := Load(path, types.Options{}, report.New())
	require.NoError(t, err)
	assert.Equal(t, int64(3), got["count"])
	assert.Equal(t, float64(0.5), got["ratio"])
	assert.Equal(t, int64(9007199254740993), got["nested"].(map[string]any)["big"])
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vars.toml", "title = \"demo\"\n[server]\nport = 8080\n")

	got, err := Load(path, types.Options{}, report.New())
	require.NoError(t, err)
	assert.Equal(t, "demo", got["title"])
	assert.Equal(t, int64(8080), got["server"].(map[string]any)["port"])
}

func TestLoadINI(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vars.ini", "top = 1\n[server]\nport = 8080\nhost = localhost\n[_]\nflat = True\n")

	got, err := Load(path, types.Options{}, report.New())
	require.NoError(t, err)
	assert.Equal(t, int64(1), got["top"])
	assert.Equal(t, true, got["flat"])
	assert.Equal(t, map[string]any{"port": int64(8080), "host": "localhost"}, got["server"])
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vars.env", "# comment\nPORT=8080\nNAME = app \n\nPORT=9090\n")

	rep := report.New()
	got, err := Load(path, types.Options{}, rep)
	require.NoError(t, err)
	assert.Equal(t, int64(9090), got["PORT"], "duplicate key overwrites")
	assert.Equal(t, "app", got["NAME"])
	require.Len(t, rep.Warnings(), 1)
	assert.Contains(t, rep.Warnings()[0], "'PORT'")
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vars.csv", "name,cores,ram\ncompute,16,64\nstorage,4,32\n")

	got, err := Load(path, types.Options{}, report.New())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"compute": map[string]any{"cores": int64(16), "ram": int64(64)},
		"storage": map[string]any{"cores": int64(4), "ram": int64(32)},
	}, got)
}

func TestLoadCSVCustomDelimiter(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vars.csv", "name;value\nkey;42\n")

	opts := types.Options{CSV: types.CSVOptions{Delimiter: ';'}}
	got, err := Load(path, opts, report.New())
	require.NoError(t, err)
	assert.Equal(t, int64(42), got["key"].(map[string]any)["value"])
}

func TestLoadCSVEscapeCharacter(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vars.csv", `name,text
row,hello\,world
`)

	opts := types.Options{CSV: types.CSVOptions{Escape: '\\'}}
	got, err := Load(path, opts, report.New())
	require.NoError(t, err)
	assert.Equal(t, "hello,world", got["row"].(map[string]any)["text"])
}

func TestLoadTSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vars.tsv", "name\tvalue\nkey\t7\n")

	got, err := Load(path, types.Options{}, report.New())
	require.NoError(t, err)
	assert.Equal(t, int64(7), got["key"].(map[string]any)["value"])
}

func TestLoadXML(t *testing.T) {
	dir := t.TempDir()
	content := `<config env="prod"><server><port>8080</port></server><item>1</item><item>2</item></config>`
	path := writeFile(t, dir, "vars.xml", content)

	got, err := Load(path, types.Options{}, report.New())
	require.NoError(t, err)

	config, ok := got["config"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "prod", config["@env"])
	assert.Equal(t, int64(8080), config["server"].(map[string]any)["port"])
	assert.Equal(t, []any{int64(1), int64(2)}, config["item"])
}

func TestLoadXMLConvertAttributesAndFlatRoot(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vars.xml", `<_><app name="demo"><debug>true</debug></app></_>`)

	opts := types.Options{XML: types.XMLOptions{ConvertAttributes: true}}
	got, err := Load(path, opts, report.New())
	require.NoError(t, err)

	app, ok := got["app"].(map[string]any)
	require.True(t, ok, "reserved root element is flattened away")
	assert.Equal(t, "demo", app["name"])
	assert.Equal(t, true, app["debug"])
}

func TestLoadUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vars.txt", "whatever")

	_, err := Load(path, types.Options{}, report.New())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrVarFormat))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"), types.Options{}, report.New())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrVarRead))
}

func TestLoadParseError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.json", "{not json")

	_, err := Load(path, types.Options{}, report.New())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrVarParse))
}

func TestLoadIncludeDirective(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yml", "shared: base\nonly_base: 1\n")
	path := writeFile(t, dir, "main.yml", "_include_: base.yml\nshared: main\n")

	rep := report.New()
	got, err := Load(path, types.Options{}, rep)
	require.NoError(t, err)
	assert.Equal(t, "main", got["shared"], "including file wins conflicts")
	assert.Equal(t, int64(1), got["only_base"])
	assert.NotContains(t, got, "_include_")
	require.Len(t, rep.Warnings(), 1)
}

func TestLoadIncludeList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yml", "a: 1\n")
	writeFile(t, dir, "b.yml", "b: 2\n")
	path := writeFile(t, dir, "main.yml", "_include_:\n  - a.yml\n  - b.yml\nc: 3\n")

	got, err := Load(path, types.Options{}, report.New())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1), "b": int64(2), "c": int64(3)}, got)
}

func TestLoadIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yml", "_include_: b.yml\n")
	path := writeFile(t, dir, "b.yml", "_include_: a.yml\n")

	_, err := Load(path, types.Options{}, report.New())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrVarParse))
	assert.Contains(t, err.Error(), "cycle")
}

func TestSupportedExtensionsSorted(t *testing.T) {
	exts := SupportedExtensions()
	assert.Contains(t, exts, ".yaml")
	assert.Contains(t, exts, ".tsv")
	assert.IsIncreasing(t, exts)
}
