// Package repository implements the data access layer over SurrealDB.
//
// Repositories accept a database.Querier so tests can substitute a fake.
// Queries are parameterized with $variable syntax and address records with
// type::record(). Lookups of a missing record return (nil, nil); callers
// decide whether absence is an error.
//
//	repo := NewUserRepository(db)
//	user, err := repo.GetByID(ctx, "user:abc123")
//	if err != nil {
//	    return err
//	}
//	if user == nil {
//	    // not found
//	}
package repository
