package runner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestPrepareJob(t *testing.T) {
	t.Run("Default Config", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeFile(t, filepath.Join(tmpDir, "package.json"), "{}")
		testFile := filepath.Join(tmpDir, "src", "foo.test.js")
		writeFile(t, testFile, "")

		job, err := PrepareJob("src/foo.test.js", testFile, "foo")
		if err != nil {
			t.Fatalf("PrepareJob failed: %v", err)
		}

		if job.Root != tmpDir {
			t.Errorf("Expected root %s, got %s", tmpDir, job.Root)
		}
		if job.Command != "npx" {
			t.Errorf("Expected command npx, got %s", job.Command)
		}
		// jest, src/foo.test.js, --colors
		if len(job.Args) != 3 || job.Args[1] != filepath.Join("src", "foo.test.js") {
			t.Errorf("Unexpected args: %v", job.Args)
		}
		if job.ID == "" || job.TestID != "src/foo.test.js" {
			t.Errorf("Expected job and test ids, got %q %q", job.ID, job.TestID)
		}
		if job.Env != nil {
			t.Errorf("Expected inherited environment, got %d vars", len(job.Env))
		}
	})

	t.Run("Custom Config With Name", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeFile(t, filepath.Join(tmpDir, "go.mod"), "module example.com/x\n")
		writeFile(t, filepath.Join(tmpDir, ".testexplorer.toml"), `command = "go test -v -run <name> <path>"`)
		testFile := filepath.Join(tmpDir, "pkg", "foo_test.go")
		writeFile(t, testFile, "")

		job, err := PrepareJob("foo", testFile, "TestFoo")
		if err != nil {
			t.Fatalf("PrepareJob failed: %v", err)
		}

		if job.Command != "go" {
			t.Errorf("Expected command go, got %s", job.Command)
		}
		got := strings.Join(job.Args, " ")
		want := "test -v -run TestFoo " + filepath.Join("pkg", "foo_test.go")
		if got != want {
			t.Errorf("Expected args %q, got %q", want, got)
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeFile(t, filepath.Join(tmpDir, "package.json"), "{}")
		writeFile(t, filepath.Join(tmpDir, ".testexplorer.json"), `{
			"command": "default <path>",
			"overrides": [
				{"pattern": "pkg/**", "command": "pkg-test <path>"},
				{"pattern": "src/special.test.js", "command": "special <path>"},
				{"pattern": "**/*.e2e.ts", "command": "e2e <path>"}
			]
		}`)

		cases := map[string]string{
			filepath.Join("pkg", "sub", "foo_test.go"): "pkg-test",
			filepath.Join("src", "special.test.js"):    "special",
			filepath.Join("src", "deep", "a.e2e.ts"):   "e2e",
			filepath.Join("src", "normal.test.js"):     "default",
		}
		for rel, want := range cases {
			job, err := PrepareJob(rel, filepath.Join(tmpDir, rel), "")
			if err != nil {
				t.Fatal(err)
			}
			if job.Command != want {
				t.Errorf("%s: expected %s, got %s", rel, want, job.Command)
			}
		}
	})

	t.Run("Env File", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeFile(t, filepath.Join(tmpDir, "package.json"), "{}")
		writeFile(t, filepath.Join(tmpDir, ".env.test"), "API_URL=http://localhost:8080\nDEBUG=1\n")
		writeFile(t, filepath.Join(tmpDir, ".testexplorer.json"), `{"command": "jest <path>", "env_file": ".env.test"}`)

		job, err := PrepareJob("a", filepath.Join(tmpDir, "a.test.js"), "")
		if err != nil {
			t.Fatal(err)
		}

		joined := strings.Join(job.Env, "\n")
		for _, want := range []string{"API_URL=http://localhost:8080", "DEBUG=1"} {
			if !strings.Contains(joined, want) {
				t.Errorf("Expected env to contain %s", want)
			}
		}
	})

	t.Run("Missing Env File", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeFile(t, filepath.Join(tmpDir, "package.json"), "{}")
		writeFile(t, filepath.Join(tmpDir, ".testexplorer.json"), `{"command": "jest <path>", "env_file": ".env.nope"}`)

		if _, err := PrepareJob("a", filepath.Join(tmpDir, "a.test.js"), ""); err == nil {
			t.Error("Expected error for missing env file")
		}
	})

	t.Run("No Root", func(t *testing.T) {
		// The temp dir usually sits outside any project; skip if it does not.
		tmpDir := t.TempDir()
		if _, err := GetExecutionRoot(filepath.Join(tmpDir, "x")); err == nil {
			t.Skip("temp dir is inside a project")
		}

		testFile := filepath.Join(tmpDir, "foo.test.js")
		writeFile(t, testFile, "")

		if _, err := PrepareJob("foo", testFile, ""); err == nil {
			t.Error("Expected error when no project root found, got nil")
		}
	})
}
