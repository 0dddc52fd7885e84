package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("processing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != OrderStatusProcessing || !status.IsValid() {
		t.Fatalf("unexpected status %q", status)
	}

	if _, err := ParseOrderStatus("PROCESSING"); err == nil {
		t.Fatal("expected parse to be case sensitive")
	}
	if OrderStatus("shipped").IsValid() {
		t.Fatal("expected unknown status to be invalid")
	}
}
