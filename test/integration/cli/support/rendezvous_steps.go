package support

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/interop/internal/rendezvous"
	"github.com/MeKo-Tech/interop/internal/testutil"
	"github.com/cucumber/godog"
)

// startCoordinator launches "interop coordinator" in the background and waits
// until its socket is bound.
func (testCtx *TestContext) startCoordinator(pre, post []string) error {
	args := []string{"coordinator", "--client", testCtx.ClientSocket, "--server", testCtx.ServerSocket}
	for _, s := range pre {
		args = append(args, "--pre", testCtx.substituteVariables(s))
	}
	for _, s := range post {
		args = append(args, "--post", testCtx.substituteVariables(s))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, "interop", args...)
	cmd.Dir = testCtx.WorkingDir
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)
	output := &syncBuffer{}
	cmd.Stdout = output
	cmd.Stderr = output

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to start coordinator: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	testCtx.CoordinatorCmd = cmd
	testCtx.CoordinatorOutput = output
	testCtx.CoordinatorDone = done
	testCtx.coordinatorCancel = cancel

	if err := testutil.WaitForFile(testCtx.ServerSocket, 10*time.Second); err != nil {
		return fmt.Errorf("coordinator never bound %s: %w\nOutput: %s", testCtx.ServerSocket, err, output.String())
	}
	return nil
}

// aCoordinatorIsRunning starts a coordinator without scripts.
func (testCtx *TestContext) aCoordinatorIsRunning() error {
	return testCtx.startCoordinator(nil, nil)
}

// aCoordinatorIsRunningWithScripts starts a coordinator with one pre and one post script.
func (testCtx *TestContext) aCoordinatorIsRunningWithScripts(pre, post string) error {
	return testCtx.startCoordinator([]string{pre}, []string{post})
}

// theCoordinatorShouldExitSuccessfully waits for the coordinator to finish.
func (testCtx *TestContext) theCoordinatorShouldExitSuccessfully() error {
	if testCtx.CoordinatorCmd == nil {
		return fmt.Errorf("no coordinator was started")
	}
	select {
	case err := <-testCtx.CoordinatorDone:
		testCtx.CoordinatorCmd = nil
		if err != nil {
			return fmt.Errorf("coordinator failed: %w\nOutput: %s", err, testCtx.CoordinatorOutput.String())
		}
		return nil
	case <-time.After(10 * time.Second):
		return fmt.Errorf("coordinator still running\nOutput: %s", testCtx.CoordinatorOutput.String())
	}
}

// theCoordinatorOutputShouldContain checks the coordinator's combined output.
func (testCtx *TestContext) theCoordinatorOutputShouldContain(text string) error {
	if testCtx.CoordinatorOutput == nil {
		return fmt.Errorf("no coordinator was started")
	}
	out := testCtx.CoordinatorOutput.String()
	if !strings.Contains(out, testCtx.substituteVariables(text)) {
		return fmt.Errorf("coordinator output does not contain '%s'\nActual output: %s", text, out)
	}
	return nil
}

// readTimingFile parses the client's timing file.
func (testCtx *TestContext) readTimingFile() ([]rendezvous.Record, error) {
	f, err := os.Open(testCtx.OutputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open timing file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return rendezvous.ReadRecords(f)
}

// theTimingFileShouldContainRecords checks the number of records written.
func (testCtx *TestContext) theTimingFileShouldContainRecords(count int) error {
	records, err := testCtx.readTimingFile()
	if err != nil {
		return err
	}
	if len(records) != count {
		return fmt.Errorf("timing file has %d records, want %d", len(records), count)
	}
	return nil
}

// everyRecordShouldStartBeforeItEnds checks start <= end for each record.
func (testCtx *TestContext) everyRecordShouldStartBeforeItEnds() error {
	records, err := testCtx.readTimingFile()
	if err != nil {
		return err
	}
	for i, r := range records {
		if r.Start > r.End {
			return fmt.Errorf("record %d: start %d after end %d", i, r.Start, r.End)
		}
	}
	return nil
}

// theRecordedIntervalShouldBeAtLeast checks the first record's interval.
func (testCtx *TestContext) theRecordedIntervalShouldBeAtLeast(ms int) error {
	records, err := testCtx.readTimingFile()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("timing file is empty")
	}
	if got, want := records[0].Interval(), time.Duration(ms)*time.Millisecond; got < want {
		return fmt.Errorf("interval %s shorter than %s", got, want)
	}
	return nil
}

// aTimingFileWithRecords writes the table's start/end rows to the timing file.
func (testCtx *TestContext) aTimingFileWithRecords(table *godog.Table) error {
	f, err := os.Create(testCtx.OutputFile)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		if len(row.Cells) != 2 {
			return fmt.Errorf("row %d: want start and end columns", i)
		}
		start, err := strconv.ParseUint(row.Cells[0].Value, 10, 64)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		end, err := strconv.ParseUint(row.Cells[1].Value, 10, 64)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if err := rendezvous.WriteRecord(f, rendezvous.Record{Start: start, End: end}); err != nil {
			return err
		}
	}
	return nil
}

// RegisterRendezvousSteps registers coordinator and timing file steps.
func (testCtx *TestContext) RegisterRendezvousSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a coordinator is running$`, testCtx.aCoordinatorIsRunning)
	sc.Step(`^a coordinator is running with pre script "([^"]*)" and post script "([^"]*)"$`,
		testCtx.aCoordinatorIsRunningWithScripts)
	sc.Step(`^the coordinator should exit successfully$`, testCtx.theCoordinatorShouldExitSuccessfully)
	sc.Step(`^the coordinator output should contain "([^"]*)"$`, testCtx.theCoordinatorOutputShouldContain)

	sc.Step(`^a timing file with records:$`, testCtx.aTimingFileWithRecords)
	sc.Step(`^the timing file should contain (\d+) records?$`, testCtx.theTimingFileShouldContainRecords)
	sc.Step(`^every record should start before it ends$`, testCtx.everyRecordShouldStartBeforeItEnds)
	sc.Step(`^the recorded interval should be at least (\d+) milliseconds$`, testCtx.theRecordedIntervalShouldBeAtLeast)
}
