// Package agent contains the worker agents of a content run and the uniform
// activation protocol wrapped around them.
//
// Every variant embeds BaseAgent and implements core.Agent:
//
//  1. Parse turns the raw record into a structured product
//  2. QuestionGen produces categorised user questions
//  3. PageGen builds the FAQ, product and comparison pages
//  4. QualityCheck validates the pages and requests refinement
//  5. Synthesize assembles the final bundle
//
// Agents never fail. Missing prerequisites become Request messages to the
// agent that can supply them, and generation failures become deterministic
// fallback content. Invoke wraps a single execution with the skip / complete
// notifications the engine relies on.
package agent
