// Package docbind maps Go structs onto collections of a document store.
//
// A schema is a struct embedding Entity. Its fields are classified once,
// by type, into three kinds:
//
//   - scalars, stored verbatim under the name given by the `doc` tag;
//   - Ref[T] fields, stored as pointers to documents of schema T;
//   - *Collection[T] fields, sub-collections addressed by the owning
//     document's path and never stored in the document itself.
//
// Example:
//
//	type User struct {
//	    docbind.Entity
//	    Name     string                        `doc:"name"`
//	    Uploaded *docbind.Collection[Upload]   `doc:"uploaded_books"`
//	}
//
//	type Upload struct {
//	    docbind.Entity
//	    Book docbind.Ref[Book] `doc:"book"`
//	}
//
//	users := docbind.NewCollection[User](db, "users")
//	u, err := users.Where(docbind.Where{"name": {"==": "katsuo"}}).FindOne(ctx)
//	up, err := u.Uploaded.FindOne(ctx)
//	book, err := up.Book.Get(ctx)
//
// Builder calls (Where, OrderBy, Limit, LimitToLast) return a new
// Collection and never modify the receiver. Terminal calls (FindMany,
// FindOne, FindByID, Next) talk to the store. Next pages through results
// using a cursor held by the Collection value it is called on; concurrent
// pagination needs separate values.
package docbind

import "github.com/arthur-debert/docbind/types"

// DocRef is the store's document pointer.
type DocRef = types.DocRef

// Direction re-exports the order directions.
type Direction = types.Direction

const (
	Asc  = types.Asc
	Desc = types.Desc
)
