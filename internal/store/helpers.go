package store

import (
	"context"
	"fmt"
	"iter"
)

// ListAllContainers follows continuation tokens until the directory reports
// no further pages and returns every container name in page order.
func ListAllContainers(ctx context.Context, dir Directory) ([]string, error) {
	var (
		names []string
		token string
		seen  = make(map[string]struct{})
	)

	for {
		page, err := dir.ListContainersPage(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("failed to list containers: %w", err)
		}
		names = append(names, page.Names...)

		if page.Next == "" {
			return names, nil
		}
		if _, dup := seen[page.Next]; dup {
			return nil, fmt.Errorf("failed to list containers: continuation token %q repeated", page.Next)
		}
		seen[page.Next] = struct{}{}
		token = page.Next
	}
}

// Collect drains a List stream into a slice. The first error aborts
// collection and is returned with whatever was gathered discarded.
func Collect(seq iter.Seq2[ObjectMeta, error]) ([]ObjectMeta, error) {
	var objects []ObjectMeta
	for obj, err := range seq {
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// Fail returns a stream that yields err once.
func Fail(err error) iter.Seq2[ObjectMeta, error] {
	return func(yield func(ObjectMeta, error) bool) {
		yield(ObjectMeta{}, err)
	}
}
