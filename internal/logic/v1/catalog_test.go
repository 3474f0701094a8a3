package v1

import (
	"context"
	"errors"
	"testing"

	"github.com/duynhne/groc-service/internal/core/repository"
)

func TestParsePrice(t *testing.T) {
	valid := map[string]int64{"12.99": 1299, "3.5": 350, "$4": 400, " 0.05 ": 5, ".75": 75}
	for in, want := range valid {
		got, err := ParsePrice(in)
		if err != nil || got != want {
			t.Errorf("ParsePrice(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, in := range []string{"", "0", "abc", "1.999", "-3", "1e3", "1.-5"} {
		if _, err := ParsePrice(in); !errors.Is(err, ErrInvalidProduct) {
			t.Errorf("ParsePrice(%q): expected ErrInvalidProduct, got %v", in, err)
		}
	}
}

func TestCatalogCRUD(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(repository.NewMemoryProductRepository())

	id, err := svc.Create(ctx, ProductInput{Name: " Apples ", Price: "2.49", Stock: 10})
	if err != nil {
		t.Fatal(err)
	}

	p, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Apples" || p.PriceCents != 249 {
		t.Fatalf("unexpected product %+v", p)
	}

	if err := svc.Update(ctx, id, ProductInput{Name: "Green apples", Price: "2.99", Stock: 4}); err != nil {
		t.Fatal(err)
	}
	list, err := svc.List(ctx, "green")
	if err != nil || len(list) != 1 || list[0].PriceCents != 299 {
		t.Fatalf("unexpected search result %+v, %v", list, err)
	}

	if err := svc.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, id); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, id); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound on second delete, got %v", err)
	}
	if err := svc.Update(ctx, id, ProductInput{Name: "x", Price: "1"}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound on update, got %v", err)
	}
}

func TestCatalogRejectsInvalidProducts(t *testing.T) {
	svc := NewCatalogService(repository.NewMemoryProductRepository())
	for _, in := range []ProductInput{
		{Name: "", Price: "1"},
		{Name: "Milk", Price: ""},
		{Name: "Milk", Price: "1", Stock: -1},
	} {
		if _, err := svc.Create(context.Background(), in); !errors.Is(err, ErrInvalidProduct) {
			t.Errorf("Create(%+v): expected ErrInvalidProduct, got %v", in, err)
		}
	}
}
