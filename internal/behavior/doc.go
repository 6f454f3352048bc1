// Package behavior turns clustered feature windows into driving-behavior
// labels. An initial clustering is refined by splitting every cluster in two;
// the refined groups are ranked by mean speed, paired into road-type bands,
// and within each pair the group with the more dispersed speed variation is
// marked aggressive.
package behavior
