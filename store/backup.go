package store

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
)

// BackupCollections are the collections included in a backup, in restore order.
var BackupCollections = []string{
	RolesCollection,
	UsersCollection,
	SettingsCollection,
	ProductsCollection,
	BlogCollection,
	MediaCollection,
	InquiriesCollection,
	ReviewsCollection,
	ReviewImagesCollection,
	ReviewResponsesCollection,
	CartsCollection,
	OrdersCollection,
	CountersCollection,
}

// Dump writes every document of the named collection to w as canonical
// extended JSON, one document per line, and returns the document count.
func (d *DB) Dump(ctx context.Context, name string, w io.Writer) (int64, error) {
	cursor, err := d.Collection(name).Find(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	bw := bufio.NewWriter(w)
	var n int64
	for cursor.Next(ctx) {
		line, err := bson.MarshalExtJSON(cursor.Current, true, false)
		if err != nil {
			return n, fmt.Errorf("marshal %s document: %w", name, err)
		}
		if _, err := bw.Write(append(line, '\n')); err != nil {
			return n, err
		}
		n++
	}
	if err := cursor.Err(); err != nil {
		return n, err
	}
	return n, bw.Flush()
}
