package metrics

import "testing"

func TestCollector(t *testing.T) {
	c := New()

	for i := 0; i < 4; i++ {
		c.RecordRequest()
	}
	c.RecordRetry()
	c.RecordRetry()
	c.RecordPage()
	c.RecordLinks(3)
	c.RecordFlags(1)
	c.RecordBytes(1024)
	c.RecordError()
	c.RecordStatusCode(200)
	c.RecordStatusCode(503)
	c.RecordStatusCode(503)

	s := c.Snapshot()

	if s.RequestsTotal != 4 {
		t.Errorf("RequestsTotal = %d, want 4", s.RequestsTotal)
	}
	if s.RetriesTotal != 2 {
		t.Errorf("RetriesTotal = %d, want 2", s.RetriesTotal)
	}
	if s.PagesCrawled != 1 {
		t.Errorf("PagesCrawled = %d, want 1", s.PagesCrawled)
	}
	if s.LinksDiscovered != 3 {
		t.Errorf("LinksDiscovered = %d, want 3", s.LinksDiscovered)
	}
	if s.FlagsFound != 1 {
		t.Errorf("FlagsFound = %d, want 1", s.FlagsFound)
	}
	if s.BytesTotal != 1024 {
		t.Errorf("BytesTotal = %d, want 1024", s.BytesTotal)
	}
	if s.ErrorsTotal != 1 {
		t.Errorf("ErrorsTotal = %d, want 1", s.ErrorsTotal)
	}
	if s.StatusCodes[200] != 1 || s.StatusCodes[503] != 2 {
		t.Errorf("StatusCodes = %v", s.StatusCodes)
	}
}

func TestSnapshotFields(t *testing.T) {
	c := New()
	c.RecordRequest()

	fields := c.Snapshot().Fields()
	if fields["requests"] != int64(1) {
		t.Errorf("fields[requests] = %v, want 1", fields["requests"])
	}
	if _, ok := fields["elapsed"]; !ok {
		t.Error("fields missing elapsed")
	}
}
