// Package memory is the conversation store: threads of role-tagged turns held
// for the lifetime of the process.
//
// Model:
//   - A Turn keeps role, text, timestamp and the tool calls (name + arguments)
//     made while producing it. Tool results are not kept.
//   - Turns are immutable once appended and strictly ordered in time.
//   - Thread ids are never reused; a deleted id stays retired.
//   - Lock serializes turns on one thread; different threads run concurrently.
package memory
