// Package agglo trains agglomerative decision graphs over discrete feature
// vectors, as used to cluster the unit inventory of a concatenative speech
// synthesizer.
//
// Training grows the graph one feature at a time. At every depth the
// feature whose partition gives the lowest global impurity is grafted onto
// the graph, then the freshly created leaves are merged pairwise as long as
// a merge lowers the global impurity. Merging is what turns the tree into a
// graph: a merged leaf is reachable from several decision slots.
//
// Basic usage:
//
//	cfg := agglo.DefaultConfig()
//	cfg.Distance = agglo.HammingDistance{}
//	res, err := agglo.Train(ctx, vectors, def, cfg)
//	// res.Graph.Interpret(fv) returns the candidates for a new context
//	// res.Depths[i] reports the feature chosen at depth i+1
//
// # Impurity
//
// The impurity of a leaf is the root-mean-square distance over all pairs of
// its vectors. The global impurity of a set of leaves is their
// size-weighted mean impurity plus ln(#leaves), so splitting only pays off
// when it makes leaves substantially more homogeneous. Set Config.Scorer to
// change how impurities are combined.
//
// # Stopping
//
// Training stops when the best remaining feature increases the number of
// populated leaves by less than Config.MinLeafGrowth (1% by default), or
// when no eligible feature is left.
package agglo
