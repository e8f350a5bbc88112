// Package scheme fits 14-line poems to conventional sonnet rhyme schemes.
//
// Templates are fixed, ordered tables of local index pairs per stanza length:
//
//	couplet  (2): AA
//	quatrain (4): ABBA, ABAB, AABB
//	tercets  (6): ABCABC, AABCCB
//
// Match scores one stanza against a template table: one point per template
// pair whose words rhyme. Only a strictly higher score replaces the current
// best, so the first listed template wins every tie, including a tie at zero.
//
// Segment applies Match to the octave/sestet structure of a sonnet:
//
//   - Octave (lines 0-7): both quatrains are scored; the better one (the
//     first on a tie) supplies one template that is applied to both quatrains.
//   - Sestet (lines 8-13): quatrain plus couplet (scores summed) competes with
//     two tercets. Ties favor quatrain plus couplet, and when it wins the
//     couplet is always emitted as a rhyming pair.
//
// Poems of any other length have no scheme, which is not an error.
package scheme
