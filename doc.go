// github.com/tve/ieee802154 contains the PAN Information Base (PIB) of an IEEE 802.15.4 radio
// driver together with the receive-side address filter that uses it. The root package holds the
// identifier types shared by the sub-packages. The frame view is in frame, the PIB store and its
// destination-match predicate are in pib, and rxfilter wraps both for use by a concurrent caller.
// A small MQTT gateway that filters radio traffic can be found in the cmd directory tree.
package ieee802154
