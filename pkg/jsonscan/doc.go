// Package jsonscan holds the quote-aware text heuristics shared by input
// format detection and model output recovery.
//
// None of this is a JSON grammar. The functions answer cheap structural
// questions (are brackets balanced outside strings, does a blacklisted bare
// word appear outside strings) and apply bounded textual repairs, so callers
// can decide whether a strict decoder is worth trying.
//
// # Bare Token Blacklist
//
// Model output and hand-written records often contain unquoted words such as
// Production or Product where a JSON string belongs. A Scanner carries the
// blacklist of such words; DefaultBlacklist is used when none is configured.
//
//	sc := jsonscan.New(nil)
//	if !sc.Valid(text) {
//	    if extracted, ok := sc.Extract(text); ok {
//	        text = extracted
//	    } else {
//	        text = sc.Repair(text)
//	    }
//	}
package jsonscan
