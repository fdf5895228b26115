package catalog

import "github.com/shopspring/decimal"

// SeedBooks is the demo catalogue loaded when SEED_ON_START is set.
func SeedBooks() []Book {
	return []Book{
		{Title: "Cien años de soledad", Author: "Gabriel García Márquez", ISBN: "9780307474728", Price: decimal.RequireFromString("18.50"), Quantity: 10, Category: "Novela"},
		{Title: "La vorágine", Author: "José Eustasio Rivera", ISBN: "9789583001529", Price: decimal.RequireFromString("12.00"), Quantity: 5, Category: "Novela"},
		{Title: "The Go Programming Language", Author: "Donovan & Kernighan", ISBN: "9780134190440", Price: decimal.RequireFromString("39.99"), Quantity: 0, Category: "Programming"},
		{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", ISBN: "9781449373320", Price: decimal.RequireFromString("45.00"), Quantity: 20, Category: "Programming"},
		{Title: "María", Author: "Jorge Isaacs", ISBN: "9789580464839", Price: decimal.RequireFromString("9.90"), Quantity: 1, Category: "Novela"},
	}
}
