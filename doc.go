/*Package ncl implements an interval-overlap index on the Nested Containment
  List (NCL) algorithm of Alekseyenko & Lee. Given a static set of half-open
  intervals, each mapping to a target range, it answers "which intervals
  overlap [start, end)" in O(log N + k) time, in memory or directly against a
  block-structured on-disk bundle whose working set may exceed RAM.

  It assumes every coordinate fits in an int32, the same assumption
  github.com/grailbio/bio/interval makes for BAM-derived data.

  The package exposes four surfaces: Build constructs an index from a flat
  slice of Record, Searcher answers overlap queries against a built index in
  memory, Serialize writes a built index to a four-file on-disk bundle, and
  Open/FileSearcher answer overlap queries against that bundle without
  loading it into RAM. Text parsing, path construction, and any annotation
  model layered on top of Record are the caller's concern.
*/
package ncl
