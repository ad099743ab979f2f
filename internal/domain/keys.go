package domain

// KeyPrefix is the default namespace for every key written to the KV store.
// It matches the storage name used by the browser client so exported state stays recognizable.
const KeyPrefix = "movie-store:"
