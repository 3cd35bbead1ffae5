// Package macro records and replays sequences of requests.
//
// A macro is the list of request lines sent while recording, stored in a
// named register. Registers are lowercase letters (a-z) or digits (0-9);
// uppercase letters name the same register and append to it.
//
// Recording:
//
//	rec := macro.NewRecorder()
//	rec.StartRecording('a')
//	rec.Record(`{"op":"type","text":"x"}`)
//	rec.StopRecording()
//
// Playback sends each recorded line to a handler, count times:
//
//	player := macro.NewPlayer(rec)
//	err := player.Play(ctx, 'a', 3, func(line string) error {
//	    return handle(line)
//	})
//
// Registers can be saved to and loaded from a JSON file so macros survive
// between sessions.
//
// All types are safe for concurrent use.
package macro
