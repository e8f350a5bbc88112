// Package rhyme labels the lines of a poem with rhyme groups.
//
// An Engine combines two methods over the line-ending words of a poem:
//
//   - scheme matching, which fits a 14-line sonnet against canonical stanza
//     templates (see package scheme), and
//   - grouping, which links every pair of lines whose ending words the
//     oracle reports as rhyming and takes the connected components.
//
// Hybrid mode merges both results by connectivity. Every labeling is
// returned as a normalized partition.Partition: indices ascending within a
// group, groups ordered by their smallest index.
//
// Basic usage:
//
//	o := oracle.New(oracle.NewDatamuse(oracle.DefaultDatamuseConfig()), oracle.DefaultConfig())
//	engine := rhyme.NewEngine(o)
//	groups, err := engine.LabelLines(ctx, poem.Texts(), rhyme.Hybrid)
//
// An Engine is safe for concurrent use when its oracle is.
package rhyme
