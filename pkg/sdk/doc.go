// Package moviemaster is an in-process client for the moviemaster recent-search
// store and recommendation feed.
//
// It wires the same services the HTTP API uses, without the HTTP layer:
//
//	client, _ := moviemaster.New(ctx,
//	    moviemaster.WithBadger(""), // in-memory
//	    moviemaster.WithTMDB(os.Getenv("TMDB_API_KEY"), ""),
//	)
//	defer client.Close()
//
//	recent := client.Recent("alice")
//	_, _ = recent.Add(ctx, "dune")
//	_, _ = recent.Add(ctx, "the matrix")
//
//	recs, _ := client.Recommendations(ctx, "alice")
//	for _, m := range recs.Movies {
//	    fmt.Println(m.Title)
//	}
//
// Recent lists hold at most five terms, newest first, without duplicates.
// Recommendations are derived from the first search hit of every term and
// hold at most 36 movies.
package moviemaster
