// Package monitor exposes the PSU's sensors as a fixed channel tree,
// the shape hardware monitoring consumers expect: two temperature
// probes, one fan, four voltage channels, three current probes, and
// four power channels. The tree is the same for every supported model;
// a probe that is not physically connected answers reads with a
// no-data error rather than disappearing from the tree.
package monitor
