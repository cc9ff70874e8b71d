package procmem

var MatchesName = matchesName
