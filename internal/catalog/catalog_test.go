package catalog

import (
	"testing"

	"go-photo-engine/pkg/models"
)

func TestNew_RejectsDuplicateIDs(t *testing.T) {
	_, err := New([]models.StyleSpec{
		{ID: "noir", Name: "Noir"},
		{ID: "noir", Name: "Noir Again"},
	})
	if err == nil {
		t.Error("Expected error for duplicate style id")
	}
}

func TestNew_RejectsEmptyID(t *testing.T) {
	_, err := New([]models.StyleSpec{{ID: "", Name: "Anonymous"}})
	if err == nil {
		t.Error("Expected error for empty style id")
	}
}

func TestCatalog_Lookup(t *testing.T) {
	c := Default()

	spec, ok := c.Lookup("headshot")
	if !ok {
		t.Fatal("Expected headshot in default catalog")
	}
	if !spec.PremiumOnly {
		t.Error("Expected headshot to be premium-only")
	}
	if _, ok := c.Lookup("does-not-exist"); ok {
		t.Error("Expected miss for unknown style")
	}
}

func TestCatalog_OrderIndex(t *testing.T) {
	c := Default()

	if c.OrderIndex("enhance") != 0 {
		t.Errorf("Expected enhance first, got index %d", c.OrderIndex("enhance"))
	}
	if c.OrderIndex("unknown") != c.Len() {
		t.Error("Expected unknown styles to sort last")
	}
}

func TestCatalog_StylesReturnsCopy(t *testing.T) {
	c := Default()
	styles := c.Styles()
	styles[0].ID = "mutated"

	if !c.Contains("enhance") {
		t.Error("Expected catalog to be unaffected by caller mutation")
	}
}
