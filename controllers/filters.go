package controllers

import (
	"net/url"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusFilter narrows a listing by ?status=.
func StatusFilter(q url.Values) bson.M {
	return eq(bson.M{}, "status", q.Get("status"))
}

// FolderFilter narrows the media library by ?folder=.
func FolderFilter(q url.Values) bson.M {
	return eq(bson.M{}, "folder", q.Get("folder"))
}

// GroupFilter narrows settings by ?group=.
func GroupFilter(q url.Values) bson.M {
	return eq(bson.M{}, "group", q.Get("group"))
}

// ReviewFilter narrows reviews by ?status= and ?productId=.
func ReviewFilter(q url.Values) bson.M {
	f := eq(bson.M{}, "status", q.Get("status"))
	if id, err := primitive.ObjectIDFromHex(q.Get("productId")); err == nil {
		f["product_id"] = id
	}
	return f
}

func eq(f bson.M, field, value string) bson.M {
	if value != "" {
		f[field] = value
	}
	return f
}
