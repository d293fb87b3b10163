package vart

import "testing"

func TestContextRefreshDoesNotBlock(t *testing.T) {
	d, _, _, _ := newTestDevice()
	c := d.Context

	c.RequestRefresh()
	c.RequestRefresh()
	c.RequestRefresh()

	select {
	case <-c.Refreshes():
	default:
		t.Fatalf("Expected a pending refresh")
	}
	select {
	case <-c.Refreshes():
		t.Errorf("Refresh requests should merge")
	default:
	}

	c.SetProgress(42)
	c.SetQuitCode(2)
	if c.Progress() != 42 || c.QuitCode() != 2 {
		t.Errorf("Progress %d quit code %d", c.Progress(), c.QuitCode())
	}
}
