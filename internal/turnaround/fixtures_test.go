package turnaround

import "github.com/erzurum-ulasim/routegeom/internal/geo"

// k7Trace is the recorded K7 trace, out to the university campus and back.
var k7Trace = []geo.Coordinate{
	{Lat: 39.8927462, Lng: 41.2008754}, {Lat: 39.8985267, Lng: 41.1998618},
	{Lat: 39.9006245, Lng: 41.1986669}, {Lat: 39.9025095, Lng: 41.1981318},
	{Lat: 39.9048573, Lng: 41.197535}, {Lat: 39.9066949, Lng: 41.1967257},
	{Lat: 39.9094151, Lng: 41.1950053}, {Lat: 39.9118695, Lng: 41.1936236},
	{Lat: 39.9131921, Lng: 41.1926731}, {Lat: 39.9147078, Lng: 41.1914078},
	{Lat: 39.9160422, Lng: 41.1902414}, {Lat: 39.91768, Lng: 41.188787},
	{Lat: 39.9215911, Lng: 41.1879575}, {Lat: 39.9225566, Lng: 41.1892848},
	{Lat: 39.9205644, Lng: 41.1970173}, {Lat: 39.9192671, Lng: 41.2017273},
	{Lat: 39.9186389, Lng: 41.2040709}, {Lat: 39.9134391, Lng: 41.2237312},
	{Lat: 39.9116522, Lng: 41.230432}, {Lat: 39.9107458, Lng: 41.2340295},
	{Lat: 39.909128, Lng: 41.239285}, {Lat: 39.9051316, Lng: 41.255022},
	{Lat: 39.9050009, Lng: 41.2607957}, {Lat: 39.9052286, Lng: 41.2633791},
	{Lat: 39.907108, Lng: 41.265837}, {Lat: 39.909519, Lng: 41.265499},
	{Lat: 39.9117262, Lng: 41.2657996}, {Lat: 39.91311, Lng: 41.2709922},
	{Lat: 39.9114485, Lng: 41.272678}, {Lat: 39.9068743, Lng: 41.2734512},
	{Lat: 39.9022003, Lng: 41.2745693}, {Lat: 39.9008496, Lng: 41.2756235},
	{Lat: 39.9008319, Lng: 41.278347}, {Lat: 39.9008559, Lng: 41.281117},
	{Lat: 39.9032544, Lng: 41.2834293}, {Lat: 39.9050458, Lng: 41.2854363},
	{Lat: 39.90592, Lng: 41.288536}, {Lat: 39.9053339, Lng: 41.2904531},
	{Lat: 39.9027498, Lng: 41.2893507}, {Lat: 39.9013969, Lng: 41.2875335},
	{Lat: 39.900274, Lng: 41.2859591}, {Lat: 39.8991409, Lng: 41.2844061},
	{Lat: 39.8974092, Lng: 41.2807642}, {Lat: 39.8969821, Lng: 41.2787124},
	{Lat: 39.898671, Lng: 41.275536}, {Lat: 39.902265, Lng: 41.274811},
	{Lat: 39.905258, Lng: 41.273859}, {Lat: 39.9069442, Lng: 41.2737781},
	{Lat: 39.9074883, Lng: 41.2735957}, {Lat: 39.91188, Lng: 41.272755},
	{Lat: 39.913412, Lng: 41.270115}, {Lat: 39.912086, Lng: 41.266279},
	{Lat: 39.909434, Lng: 41.265108}, {Lat: 39.907129, Lng: 41.265455},
	{Lat: 39.905586, Lng: 41.264115}, {Lat: 39.905322, Lng: 41.260757},
	{Lat: 39.905496, Lng: 41.255155}, {Lat: 39.909808, Lng: 41.238893},
	{Lat: 39.9110818, Lng: 41.2339027}, {Lat: 39.9120387, Lng: 41.2302301},
	{Lat: 39.9138181, Lng: 41.2235397}, {Lat: 39.9190076, Lng: 41.2042331},
	{Lat: 39.9217174, Lng: 41.1938594}, {Lat: 39.9228999, Lng: 41.189532},
	{Lat: 39.9219068, Lng: 41.187862}, {Lat: 39.919632, Lng: 41.1867622},
	{Lat: 39.9158025, Lng: 41.1901438}, {Lat: 39.9147577, Lng: 41.1909371},
	{Lat: 39.912773, Lng: 41.1925749}, {Lat: 39.911286, Lng: 41.1935979},
	{Lat: 39.9085773, Lng: 41.1951344}, {Lat: 39.9069256, Lng: 41.1961831},
	{Lat: 39.9050911, Lng: 41.1971022}, {Lat: 39.9024169, Lng: 41.1977747},
}
