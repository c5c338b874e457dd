package domain

// KeyPrefix is the default namespace for every key written to the shared store.
const KeyPrefix = "talentmatch:"
