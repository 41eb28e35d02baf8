package migration

// aggregateStatements install stats, boxplot, cathist and datestats. Each
// returns a jsonb document or null when it saw no rows.
var aggregateStatements = []string{
	// stats(value, bins, domain min, domain max)
	// state: [count, missing, sum, min, max, bucket counts...]
	`CREATE OR REPLACE FUNCTION lineup_stats_step(state double precision[], v double precision, bins integer, lo double precision, hi double precision)
	RETURNS double precision[] LANGUAGE plpgsql IMMUTABLE AS $$
	DECLARE
		idx integer := 0;
	BEGIN
		IF cardinality(state) = 0 THEN
			state := CAST(ARRAY[0, 0, 0, NULL, NULL] AS double precision[]) || array_fill(CAST(0 AS double precision), ARRAY[bins]);
		END IF;
		state[1] := state[1] + 1;
		IF v IS NULL THEN
			state[2] := state[2] + 1;
			RETURN state;
		END IF;
		state[3] := state[3] + v;
		state[4] := least(coalesce(state[4], v), v);
		state[5] := greatest(coalesce(state[5], v), v);
		IF hi > lo THEN
			idx := floor((v - lo) / (hi - lo) * bins);
		END IF;
		idx := greatest(0, least(bins - 1, idx));
		state[6 + idx] := state[6 + idx] + 1;
		RETURN state;
	END $$`,

	`CREATE OR REPLACE FUNCTION lineup_stats_final(state double precision[])
	RETURNS jsonb LANGUAGE sql IMMUTABLE AS $$
		SELECT CASE WHEN cardinality(state) = 0 THEN NULL ELSE jsonb_build_object(
			'count', CAST(state[1] AS bigint),
			'missing', CAST(state[2] AS bigint),
			'min', state[4],
			'max', state[5],
			'mean', CASE WHEN state[1] > state[2] THEN state[3] / (state[1] - state[2]) END,
			'hist', to_jsonb(CAST(state[6:] AS bigint[])))
		END
	$$`,

	`CREATE OR REPLACE AGGREGATE stats(double precision, integer, double precision, double precision) (
		SFUNC = lineup_stats_step,
		STYPE = double precision[],
		FINALFUNC = lineup_stats_final,
		INITCOND = '{}'
	)`,

	// boxplot(value) with 1.5 IQR whiskers
	`CREATE OR REPLACE FUNCTION lineup_append(state double precision[], v double precision)
	RETURNS double precision[] LANGUAGE sql IMMUTABLE AS $$
		SELECT array_append(state, v)
	$$`,

	`CREATE OR REPLACE FUNCTION lineup_boxplot_final(state double precision[])
	RETURNS jsonb LANGUAGE plpgsql IMMUTABLE AS $$
	DECLARE
		n bigint;
		missing bigint;
		mn double precision;
		mx double precision;
		av double precision;
		q1 double precision;
		med double precision;
		q3 double precision;
		low_fence double precision;
		high_fence double precision;
		wl double precision;
		wh double precision;
		outliers jsonb;
	BEGIN
		IF cardinality(state) = 0 THEN
			RETURN NULL;
		END IF;
		SELECT count(*), count(*) FILTER (WHERE x IS NULL), min(x), max(x), avg(x),
			percentile_cont(0.25) WITHIN GROUP (ORDER BY x),
			percentile_cont(0.5) WITHIN GROUP (ORDER BY x),
			percentile_cont(0.75) WITHIN GROUP (ORDER BY x)
		INTO n, missing, mn, mx, av, q1, med, q3
		FROM unnest(state) AS x;

		low_fence := q1 - 1.5 * (q3 - q1);
		high_fence := q3 + 1.5 * (q3 - q1);
		SELECT min(x) FILTER (WHERE x >= low_fence), max(x) FILTER (WHERE x <= high_fence),
			coalesce(jsonb_agg(x ORDER BY x) FILTER (WHERE x < low_fence OR x > high_fence), '[]')
		INTO wl, wh, outliers
		FROM unnest(state) AS x;

		RETURN jsonb_build_object(
			'count', n, 'missing', missing, 'min', mn, 'max', mx, 'mean', av,
			'q1', q1, 'median', med, 'q3', q3,
			'whiskerLow', wl, 'whiskerHigh', wh, 'outlier', outliers);
	END $$`,

	`CREATE OR REPLACE AGGREGATE boxplot(double precision) (
		SFUNC = lineup_append,
		STYPE = double precision[],
		FINALFUNC = lineup_boxplot_final,
		INITCOND = '{}'
	)`,

	// cathist(value, categories) counts values of the declared vocabulary
	`DO $$ BEGIN
		CREATE TYPE lineup_cathist_state AS (categories text[], counts bigint[], n bigint, missing bigint);
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,

	`CREATE OR REPLACE FUNCTION lineup_cathist_step(state lineup_cathist_state, v text, categories text[])
	RETURNS lineup_cathist_state LANGUAGE plpgsql IMMUTABLE AS $$
	DECLARE
		idx integer;
		counts bigint[];
	BEGIN
		IF state IS NULL THEN
			state := ROW(categories, array_fill(CAST(0 AS bigint), ARRAY[cardinality(categories)]), 0, 0);
		END IF;
		state.n := state.n + 1;
		IF v IS NULL THEN
			state.missing := state.missing + 1;
			RETURN state;
		END IF;
		idx := array_position(state.categories, v);
		IF idx IS NOT NULL THEN
			counts := state.counts;
			counts[idx] := counts[idx] + 1;
			state.counts := counts;
		END IF;
		RETURN state;
	END $$`,

	`CREATE OR REPLACE FUNCTION lineup_cathist_final(state lineup_cathist_state)
	RETURNS jsonb LANGUAGE sql IMMUTABLE AS $$
		SELECT CASE WHEN state IS NULL THEN NULL ELSE jsonb_build_object(
			'count', (state).n,
			'missing', (state).missing,
			'hist', coalesce((
				SELECT jsonb_agg(jsonb_build_object('cat', u.c, 'count', u.k) ORDER BY u.i)
				FROM unnest((state).categories, (state).counts) WITH ORDINALITY AS u(c, k, i)
			), '[]'))
		END
	$$`,

	`CREATE OR REPLACE AGGREGATE cathist(text, text[]) (
		SFUNC = lineup_cathist_step,
		STYPE = lineup_cathist_state,
		FINALFUNC = lineup_cathist_final
	)`,

	// datestats(value, bucket edges) over half-open buckets [edge i, edge i+1)
	// state: [count, missing, bucket counts...]
	`CREATE OR REPLACE FUNCTION lineup_datestats_step(state bigint[], v timestamptz, edges timestamptz[])
	RETURNS bigint[] LANGUAGE plpgsql IMMUTABLE AS $$
	DECLARE
		buckets integer := greatest(cardinality(edges) - 1, 1);
		idx integer;
	BEGIN
		IF cardinality(state) = 0 THEN
			state := array_fill(CAST(0 AS bigint), ARRAY[2 + buckets]);
		END IF;
		state[1] := state[1] + 1;
		IF v IS NULL THEN
			state[2] := state[2] + 1;
			RETURN state;
		END IF;
		idx := buckets;
		FOR i IN 1..buckets LOOP
			IF v < edges[i + 1] THEN
				idx := i;
				EXIT;
			END IF;
		END LOOP;
		state[2 + idx] := state[2 + idx] + 1;
		RETURN state;
	END $$`,

	`CREATE OR REPLACE FUNCTION lineup_datestats_final(state bigint[])
	RETURNS jsonb LANGUAGE sql IMMUTABLE AS $$
		SELECT CASE WHEN cardinality(state) = 0 THEN NULL ELSE jsonb_build_object(
			'count', state[1],
			'missing', state[2],
			'hist', to_jsonb(state[3:]))
		END
	$$`,

	`CREATE OR REPLACE AGGREGATE datestats(timestamptz, timestamptz[]) (
		SFUNC = lineup_datestats_step,
		STYPE = bigint[],
		FINALFUNC = lineup_datestats_final,
		INITCOND = '{}'
	)`,
}
