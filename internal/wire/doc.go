// Package wire is a JSON-lines front end for the engine.
//
// Each input line is one request object with an "op" field and an optional
// "id" that is echoed back. Edit and cursor ops map onto engine commands:
//
//	{"op": "insert", "offset": 0, "text": "hi"}
//	{"op": "replace", "start": 0, "end": 2, "text": "yo"}
//	{"op": "select", "cursor": 1, "anchor": 0, "head": 2}
//	{"op": "move", "motion": "line-end", "extend": true}
//
// Queries read without changing anything: state, text, line, changes and
// find. Every response carries "ok" and the generation after the request;
// failures add an "error" object with a kind and a message.
package wire
