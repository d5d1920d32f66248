package store

import (
	"testing"

	"github.com/use-agent/revscan/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testHotels = []models.Hotel{
	{Name: "Grand Hotel", Website: "https://grand.example", City: "Vienna"},
	{Name: "Plaza", Website: "https://plaza.example"},
}

func TestCreateAndGetJob(t *testing.T) {
	s := openTestStore(t)
	if err := s.CreateJob("job-1", testHotels); err != nil {
		t.Fatalf("create job: %v", err)
	}

	job, err := s.GetJob("job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job == nil {
		t.Fatal("job not found")
	}
	if job.Status != models.JobPending || job.TotalHotels != 2 {
		t.Errorf("job = %+v", job)
	}

	hotels, err := s.GetJobHotels("job-1")
	if err != nil {
		t.Fatalf("get job hotels: %v", err)
	}
	if len(hotels) != 2 {
		t.Fatalf("got %d hotel rows", len(hotels))
	}
	if hotels[0].HotelName != "Grand Hotel" || hotels[0].City != "Vienna" {
		t.Errorf("hotels[0] = %+v", hotels[0])
	}
	if hotels[1].HotelIndex != 1 {
		t.Errorf("hotels[1].HotelIndex = %d", hotels[1].HotelIndex)
	}
}

func TestGetJobMissing(t *testing.T) {
	s := openTestStore(t)
	job, err := s.GetJob("nope")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job != nil {
		t.Errorf("expected nil for missing job, got %+v", job)
	}
}

func TestSaveHotelResultBumpsCounters(t *testing.T) {
	s := openTestStore(t)
	if err := s.CreateJob("job-1", testHotels); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkJobRunning("job-1"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveHotelResult("job-1", 0, `{"duetto_pixel_detected":true}`, true, true, false); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveHotelError("job-1", 1, `{"errors":["Homepage load failed"]}`); err != nil {
		t.Fatal(err)
	}

	job, err := s.GetJob("job-1")
	if err != nil {
		t.Fatal(err)
	}
	if job.ScannedCount != 2 || job.PixelCount != 1 || job.GameChangerCount != 1 || job.CompetitorRMSCount != 0 {
		t.Errorf("counters = %+v", job)
	}

	hotels, _ := s.GetJobHotels("job-1")
	if hotels[0].Status != models.HotelDone || hotels[1].Status != models.HotelError {
		t.Errorf("statuses = %s, %s", hotels[0].Status, hotels[1].Status)
	}

	results, err := s.GetJobResults("job-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results", len(results))
	}
}

func TestJobLifecycle(t *testing.T) {
	s := openTestStore(t)
	if err := s.CreateJob("job-1", testHotels); err != nil {
		t.Fatal(err)
	}

	s.MarkJobRunning("job-1")
	job, _ := s.GetJob("job-1")
	if job.Status != models.JobRunning {
		t.Errorf("status = %s", job.Status)
	}

	s.MarkJobDone("job-1")
	job, _ = s.GetJob("job-1")
	if job.Status != models.JobDone {
		t.Errorf("status = %s", job.Status)
	}

	s.MarkJobFailed("job-1", "browser crashed")
	job, _ = s.GetJob("job-1")
	if job.Status != models.JobFailed || job.ErrorMessage != "browser crashed" {
		t.Errorf("job = %+v", job)
	}
}

func TestRecoverOrphanedJobs(t *testing.T) {
	s := openTestStore(t)
	s.CreateJob("running-job", testHotels)
	s.MarkJobRunning("running-job")
	s.CreateJob("pending-job", testHotels)

	if err := s.RecoverOrphanedJobs(); err != nil {
		t.Fatal(err)
	}

	job, _ := s.GetJob("running-job")
	if job.Status != models.JobFailed {
		t.Errorf("running job status = %s, want failed", job.Status)
	}
	job, _ = s.GetJob("pending-job")
	if job.Status != models.JobPending {
		t.Errorf("pending job status = %s, want untouched", job.Status)
	}
}

func TestListJobsOrder(t *testing.T) {
	s := openTestStore(t)
	s.CreateJob("a", testHotels)
	s.CreateJob("b", testHotels)

	jobs, err := s.ListJobs(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs", len(jobs))
	}
}
