package site

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
)

func TestParseJobs(t *testing.T) {
	jobs, err := parseJobs([]string{
		"* * * * *|php artisan schedule:run",
		"0 3 * * *|php artisan backup:run",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.ScheduledJob{
		{Schedule: "* * * * *", Command: "php artisan schedule:run"},
		{Schedule: "0 3 * * *", Command: "php artisan backup:run"},
	}
	if diff := cmp.Diff(want, jobs); diff != "" {
		t.Errorf("jobs mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJobs_Invalid(t *testing.T) {
	for _, spec := range []string{"no separator", "|missing schedule", "* * * * *|"} {
		if _, err := parseJobs([]string{spec}); err == nil {
			t.Errorf("spec %q should be rejected", spec)
		}
	}
}

func TestParseWorkers(t *testing.T) {
	workers, err := parseWorkers([]string{
		"queue|php artisan queue:work|2",
		"horizon|php artisan horizon",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.WorkerProcess{
		{Name: "queue", Command: "php artisan queue:work", Processes: 2},
		{Name: "horizon", Command: "php artisan horizon"},
	}
	if diff := cmp.Diff(want, workers); diff != "" {
		t.Errorf("workers mismatch (-want +got):\n%s", diff)
	}
}

func TestParseWorkers_Invalid(t *testing.T) {
	for _, spec := range []string{"justname", "queue|cmd|zero", "queue|cmd|0", "|cmd"} {
		if _, err := parseWorkers([]string{spec}); err == nil {
			t.Errorf("spec %q should be rejected", spec)
		}
	}
}
