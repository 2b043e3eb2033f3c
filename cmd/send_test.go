package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/inflightpayment/internal/config"
)

// setup writes a config pointing the reports into a temp dir, plus one valid
// pair of input files.
func setup(t *testing.T) (cfgPath, reportsDir string, opts sendOptions) {
	t.Helper()
	dir := t.TempDir()
	reportsDir = filepath.Join(dir, "reports")

	cfgPath = filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("reports_dir: "+reportsDir+"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	opts = sendOptions{
		purchases: filepath.Join(dir, "purchases.csv"),
		customers: filepath.Join(dir, "customers.csv"),
		env:       config.DefaultEnvironment,
	}
	files := map[string]string{
		opts.purchases: "purchase_identifier;customer_id;product_id;quantity;price;currency;date\n" +
			"55;1;1221;1;10;EUR;2017-12-31\n",
		opts.customers: "customer_id;title;lastname;firstname;email\n" +
			"1;2;Doe;John;johndoe@example.com\n",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return cfgPath, reportsDir, opts
}

func TestRunSendUnsupportedEnvironment(t *testing.T) {
	cfgPath, reportsDir, opts := setup(t)
	opts.env = "fake"

	var out bytes.Buffer
	err := runSend(context.Background(), &out, cfgPath, false, opts)
	if !errors.Is(err, config.ErrUnsupportedEnvironment) {
		t.Fatalf("expected unsupported environment, got %v", err)
	}
	if err.Error() != "Environment fake not supported. Please use 'dev', 'test' or 'prod'." {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	if _, err := os.Stat(filepath.Join(reportsDir, "payload.json")); !os.IsNotExist(err) {
		t.Fatalf("payload written for an unsupported environment")
	}
	log, err := os.ReadFile(filepath.Join(reportsDir, "cli_paymentdata.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(log), "- ERROR - [") || !strings.Contains(string(log), "] Environment fake not supported") {
		t.Fatalf("error not logged: %s", log)
	}
}

func TestRunSendRejectsNonCSVPaths(t *testing.T) {
	cfgPath, reportsDir, opts := setup(t)
	opts.purchases = strings.TrimSuffix(opts.purchases, ".csv") + ".txt"
	opts.customers = strings.TrimSuffix(opts.customers, ".csv") + ".json"

	var out bytes.Buffer
	if err := runSend(context.Background(), &out, cfgPath, false, opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, msg := range []string{
		"Please provide a valid path to a CSV file containing purchase data.",
		"Please provide a valid path to a CSV file containing customer data.",
	} {
		if !strings.Contains(out.String(), msg) {
			t.Fatalf("missing %q in %q", msg, out.String())
		}
	}
	if _, err := os.Stat(filepath.Join(reportsDir, "payload.json")); !os.IsNotExist(err) {
		t.Fatalf("payload written for invalid paths")
	}
}

func TestRunSendDryRun(t *testing.T) {
	cfgPath, reportsDir, opts := setup(t)
	opts.dryRun = true

	var out bytes.Buffer
	if err := runSend(context.Background(), &out, cfgPath, true, opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Sending payload to the API: 1 customers with purchases") {
		t.Fatalf("missing summary line: %q", out.String())
	}
	if !strings.Contains(out.String(), "skipped (dry run)") {
		t.Fatalf("missing dry run notice: %q", out.String())
	}

	for _, name := range []string{"payload.json", "bad_purchases.json", "bad_customers.json", "metrics.prom"} {
		if _, err := os.Stat(filepath.Join(reportsDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	log, err := os.ReadFile(filepath.Join(reportsDir, "cli_paymentdata.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(log), "# --- Starting inflightpayment with arguments:") {
		t.Fatalf("missing startup line: %s", log)
	}
	if !strings.Contains(string(log), "- DEBUG - ") {
		t.Fatalf("verbose run should log at debug level: %s", log)
	}
}

func TestRunSendMissingConfig(t *testing.T) {
	_, _, opts := setup(t)
	err := runSend(context.Background(), &bytes.Buffer{}, filepath.Join(t.TempDir(), "missing.yaml"), false, opts)
	if err == nil || !strings.Contains(err.Error(), "failed to load config") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Version:    "+Version) {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestExecutePrintsErrorOnce(t *testing.T) {
	cfgPath, _, opts := setup(t)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"--config", cfgPath, "send", "-p", opts.purchases, "-c", opts.customers, "-e", "fake"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		sendFlags = sendOptions{env: config.DefaultEnvironment}
		cfgFile = config.DefaultConfigFile
	}()

	err := rootCmd.Execute()
	if !errors.Is(err, config.ErrUnsupportedEnvironment) {
		t.Fatalf("expected unsupported environment, got %v", err)
	}
	if errOut.Len() != 0 {
		t.Fatalf("cobra printed the error itself: %q", errOut.String())
	}
	if strings.Contains(out.String(), "Usage:") {
		t.Fatalf("usage printed on a run error: %q", out.String())
	}
}
