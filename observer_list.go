package soilview

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gdamore/tcell/v2"
	"github.com/golang/glog"

	"github.com/ayn2op/soilview/hydrate"
	"github.com/ayn2op/soilview/keybind"
	"github.com/ayn2op/soilview/metrics"
	"github.com/ayn2op/soilview/paginate"
	"github.com/ayn2op/soilview/realtime"
	"github.com/ayn2op/soilview/viewport"
)

const (
	defaultListItemMinHeight     = 1
	defaultHydrationBufferAmount = 10
	// Rows scrolled per mouse wheel step.
	wheelStep = 3
)

// Scheduler runs funcs on the goroutine that draws the list. [Application]
// implements it.
type Scheduler interface {
	Post(func())
}

// ListOptions configure an [ObserverList].
type ListOptions struct {
	// Selector picks the key list; DataType is the type of the values the keys
	// are hydrated from. UserID is needed by user lists.
	Selector realtime.Selector
	DataType string
	UserID   string

	Sort paginate.Sort
	// Pagination loads the list in pages of Amount entries. A nil Pagination
	// loads and listens to the whole list.
	Pagination *paginate.Pagination
	// StartEdge makes the list start at a bound instead of the end Sort
	// starts from.
	StartEdge *realtime.Bound
	// IgnoreNonStartingEdgeAdditions drops entries added to pages other than
	// the first, e.g. old messages arriving late in a chat.
	IgnoreNonStartingEdgeAdditions bool
	// Disable tears the list down and keeps it empty.
	Disable bool

	// ListItemMinHeight is the smallest height of an entry, in rows.
	ListItemMinHeight int
	// HydrationBufferAmount is how many minimal entries beyond each edge of
	// the list are hydrated ahead of being scrolled in.
	HydrationBufferAmount int
	// ObservePermanently keeps an entry observed, and hydrated, once it has
	// come near the viewport, even after it scrolls away.
	ObservePermanently bool

	OmitKeys []string
	Grouping Grouping

	// Animate reveals new entries one after another, AnimationStep apart.
	Animate       bool
	AnimationStep time.Duration
}

func (o ListOptions) identity() paginate.Identity {
	return paginate.Identity{
		Selector:                       o.Selector,
		DataType:                       o.DataType,
		UserID:                         o.UserID,
		Sort:                           o.Sort,
		Pagination:                     o.Pagination,
		StartEdge:                      o.StartEdge,
		IgnoreNonStartingEdgeAdditions: o.IgnoreNonStartingEdgeAdditions,
		Disabled:                       o.Disable,
	}
}

func (o ListOptions) margin() viewport.Margin {
	minHeight := o.ListItemMinHeight
	if minHeight <= 0 {
		minHeight = defaultListItemMinHeight
	}
	buffer := o.HydrationBufferAmount
	if buffer <= 0 {
		buffer = defaultHydrationBufferAmount
	}
	return viewport.Uniform(minHeight * buffer)
}

// Keymap holds the list key bindings.
type Keymap struct {
	Down     keybind.Keybind
	Up       keybind.Keybind
	PageDown keybind.Keybind
	PageUp   keybind.Keybind
	Top      keybind.Keybind
	Bottom   keybind.Keybind
	Select   keybind.Keybind
}

func DefaultKeymap() Keymap {
	return Keymap{
		Down:     keybind.NewKeybind(keybind.WithKeys("down", "j"), keybind.WithHelp("↓/j", "down")),
		Up:       keybind.NewKeybind(keybind.WithKeys("up", "k"), keybind.WithHelp("↑/k", "up")),
		PageDown: keybind.NewKeybind(keybind.WithKeys("pgdn", "ctrl+d"), keybind.WithHelp("pgdn", "page down")),
		PageUp:   keybind.NewKeybind(keybind.WithKeys("pgup", "ctrl+u"), keybind.WithHelp("pgup", "page up")),
		Top:      keybind.NewKeybind(keybind.WithKeys("home", "g"), keybind.WithHelp("g", "top")),
		Bottom:   keybind.NewKeybind(keybind.WithKeys("end", "G"), keybind.WithHelp("G", "bottom")),
		Select:   keybind.NewKeybind(keybind.WithKeys("enter"), keybind.WithHelp("enter", "select")),
	}
}

// ShortHelp lists the bindings for a help bar.
func (k Keymap) ShortHelp() []keybind.Keybind {
	return []keybind.Keybind{k.Down, k.Up, k.PageDown, k.PageUp, k.Top, k.Bottom, k.Select}
}

type rowKind int

const (
	rowItem rowKind = iota
	rowHeader
	rowPrefix
	rowLoading
	rowEmpty
)

// row is one laid out element of the list. top is relative to the first
// row of the list, not to the screen.
type row struct {
	kind   rowKind
	index  int
	key    string
	item   ListItem
	top    int
	height int
}

// slot is the on-screen rect of an entry, including the part scrolled out of
// view. It is what the viewport observer intersects.
type slot struct {
	x, y, width, height int
	unregister          func()
}

func (s *slot) GetRect() (int, int, int, int) {
	return s.x, s.y, s.width, s.height
}

// innerRect exposes the content area of the list as a viewport root.
type innerRect struct {
	l *ObserverList
}

func (r innerRect) GetRect() (int, int, int, int) {
	return r.l.GetInnerRect()
}

// ObserverList shows a paginated realtime list. Keys are loaded page by page
// as the end of the list scrolls near the viewport and each entry is hydrated
// only while it is within the hydration margin.
//
// The list, its controller and its hydrator run on the scheduler goroutine:
// every method must be called from there.
type ObserverList struct {
	*Box

	db    realtime.Database
	sched Scheduler

	opts            ListOptions
	identityPending bool

	controller *paginate.Controller
	hydrator   *hydrate.Hydrator
	observer   *viewport.Observer
	cache      *hydrate.Cache
	customGet  hydrate.Getter
	metrics    *metrics.Metrics

	omit            mapset.Set[string]
	builder         ItemBuilder
	groupingBuilder GroupingBuilder
	location        *time.Location
	loading         ListItem
	empty           ListItem
	prefix          ListItem

	keymap Keymap

	// entries is the displayed list, omitted keys excluded. stamps maps each
	// displayed key to its list value.
	entries []realtime.Entry
	stamps  map[string]any
	slots   map[string]*slot
	reveal  map[string]time.Time

	layout []row

	cursor int
	scroll int
	// wantsCursor scrolls the cursor into view on the next draw.
	wantsCursor bool
	trackEnd    bool
	atEnd       bool

	visibilityPosted bool

	changed  func(index int)
	selected func(key string)
	onError  func(err error)
}

// NewObserverList returns a list reading from db. Fetch results and database
// events are handed back through sched.
func NewObserverList(db realtime.Database, sched Scheduler) *ObserverList {
	l := &ObserverList{
		Box:             NewBox(),
		db:              db,
		sched:           sched,
		omit:            mapset.NewThreadUnsafeSet[string](),
		builder:         DefaultItemBuilder,
		groupingBuilder: DefaultGroupingBuilder,
		location:        time.Local,
		loading:         NewTextItem("Loading" + string(Ellipsis)).SetColor(Styles.TertiaryTextColor),
		keymap:          DefaultKeymap(),
		stamps:          map[string]any{},
		slots:           map[string]*slot{},
		reveal:          map[string]time.Time{},
		cursor:          -1,
		opts: ListOptions{
			Sort: paginate.CreatedOldest,
		},
	}
	l.controller = paginate.NewController(db, sched).
		SetChangedFunc(l.entriesChanged).
		SetErrorFunc(l.reportError)
	l.observer = viewport.NewObserver(innerRect{l}, l.opts.margin()).
		SetChangedFunc(l.visibilityChanged)
	l.rebuildHydrator()
	return l
}

// SetOptions replaces every option. The list reloads on the next draw or
// [ObserverList.Sync] if the options select a different list.
func (l *ObserverList) SetOptions(opts ListOptions) *ObserverList {
	dataType := l.opts.DataType
	l.opts = opts
	l.omit = mapset.NewThreadUnsafeSet(opts.OmitKeys...)
	l.observer.SetMargin(opts.margin()).SetSticky(opts.ObservePermanently)
	if opts.DataType != dataType {
		l.rebuildHydrator()
	}
	l.identityPending = true
	l.MarkDirty()
	return l
}

// Options returns the current options.
func (l *ObserverList) Options() ListOptions {
	return l.opts
}

func (l *ObserverList) update(f func(o *ListOptions)) *ObserverList {
	opts := l.opts
	f(&opts)
	return l.SetOptions(opts)
}

func (l *ObserverList) SetSelector(sel realtime.Selector) *ObserverList {
	return l.update(func(o *ListOptions) { o.Selector = sel })
}

func (l *ObserverList) SetDataType(dataType string) *ObserverList {
	return l.update(func(o *ListOptions) { o.DataType = dataType })
}

func (l *ObserverList) SetUserID(userID string) *ObserverList {
	return l.update(func(o *ListOptions) { o.UserID = userID })
}

func (l *ObserverList) SetSort(sort paginate.Sort) *ObserverList {
	return l.update(func(o *ListOptions) { o.Sort = sort })
}

func (l *ObserverList) SetPagination(p *paginate.Pagination) *ObserverList {
	return l.update(func(o *ListOptions) { o.Pagination = p })
}

func (l *ObserverList) SetStartEdge(edge *realtime.Bound) *ObserverList {
	return l.update(func(o *ListOptions) { o.StartEdge = edge })
}

func (l *ObserverList) SetIgnoreNonStartingEdgeAdditions(ignore bool) *ObserverList {
	return l.update(func(o *ListOptions) { o.IgnoreNonStartingEdgeAdditions = ignore })
}

func (l *ObserverList) SetDisabled(disabled bool) *ObserverList {
	return l.update(func(o *ListOptions) { o.Disable = disabled })
}

// SetListItemMinHeight sets the smallest entry height. It also scales the
// hydration margin.
func (l *ObserverList) SetListItemMinHeight(rows int) *ObserverList {
	return l.update(func(o *ListOptions) { o.ListItemMinHeight = rows })
}

func (l *ObserverList) SetHydrationBufferAmount(amount int) *ObserverList {
	return l.update(func(o *ListOptions) { o.HydrationBufferAmount = amount })
}

func (l *ObserverList) SetObservePermanently(permanent bool) *ObserverList {
	return l.update(func(o *ListOptions) { o.ObservePermanently = permanent })
}

// SetOmitKeys hides keys from the list. They still count for pagination.
func (l *ObserverList) SetOmitKeys(keys ...string) *ObserverList {
	l.update(func(o *ListOptions) { o.OmitKeys = keys })
	l.entriesChanged()
	return l
}

// SetGrouping shows a header built by builder before each run of entries of
// the same period. A nil builder keeps the current one.
func (l *ObserverList) SetGrouping(g Grouping, builder GroupingBuilder) *ObserverList {
	if builder != nil {
		l.groupingBuilder = builder
	}
	return l.update(func(o *ListOptions) { o.Grouping = g })
}

// SetAnimate reveals new entries one by one, step apart.
func (l *ObserverList) SetAnimate(animate bool, step time.Duration) *ObserverList {
	return l.update(func(o *ListOptions) {
		o.Animate = animate
		o.AnimationStep = step
	})
}

// SetLocation sets the time zone grouping periods are computed in.
func (l *ObserverList) SetLocation(loc *time.Location) *ObserverList {
	l.location = loc
	l.MarkDirty()
	return l
}

func (l *ObserverList) SetItemBuilder(builder ItemBuilder) *ObserverList {
	l.builder = builder
	l.MarkDirty()
	return l
}

// SetLoading sets what is shown until the first page arrives.
func (l *ObserverList) SetLoading(item ListItem) *ObserverList {
	l.loading = item
	l.MarkDirty()
	return l
}

// SetEmpty sets what is shown when the loaded list is empty.
func (l *ObserverList) SetEmpty(item ListItem) *ObserverList {
	l.empty = item
	l.MarkDirty()
	return l
}

// SetPrefix sets what is shown above the entries of a non-empty list.
func (l *ObserverList) SetPrefix(item ListItem) *ObserverList {
	l.prefix = item
	l.MarkDirty()
	return l
}

// SetCustomGet hydrates entries with get instead of the database.
func (l *ObserverList) SetCustomGet(get hydrate.Getter) *ObserverList {
	l.customGet = get
	l.rebuildHydrator()
	l.entriesChanged()
	return l
}

// SetCache shares hydrated values with the other lists using c.
func (l *ObserverList) SetCache(c *hydrate.Cache) *ObserverList {
	l.cache = c
	l.hydrator.SetCache(c)
	return l
}

func (l *ObserverList) SetMetrics(m *metrics.Metrics) *ObserverList {
	l.metrics = m
	l.controller.SetMetrics(m)
	l.hydrator.SetMetrics(m)
	return l
}

func (l *ObserverList) SetKeymap(keymap Keymap) *ObserverList {
	l.keymap = keymap
	return l
}

func (l *ObserverList) Keymap() Keymap {
	return l.keymap
}

// ShortHelp lets the list serve as a help bar key map.
func (l *ObserverList) ShortHelp() []keybind.Keybind {
	return l.keymap.ShortHelp()
}

// SetTrackEnd keeps the end of the list in view while it grows, as long as
// the view was at the end already.
func (l *ObserverList) SetTrackEnd(track bool) *ObserverList {
	l.trackEnd = track
	return l
}

// SetChangedFunc sets a handler called when the cursor moves.
func (l *ObserverList) SetChangedFunc(handler func(index int)) *ObserverList {
	l.changed = handler
	return l
}

// SetSelectedFunc sets a handler called with the key under the cursor when
// the select binding is pressed or an entry is double clicked.
func (l *ObserverList) SetSelectedFunc(handler func(key string)) *ObserverList {
	l.selected = handler
	return l
}

// SetErrorFunc sets a handler called for configuration, fetch and hydration
// errors.
func (l *ObserverList) SetErrorFunc(handler func(err error)) *ObserverList {
	l.onError = handler
	return l
}

func (l *ObserverList) rebuildHydrator() {
	if l.hydrator != nil {
		l.hydrator.Reset()
	}
	get := l.customGet
	if get == nil {
		get = hydrate.FromDatabase(l.db)
	}
	l.hydrator = hydrate.New(l.opts.DataType, get, l.sched).
		SetCache(l.cache).
		SetMetrics(l.metrics).
		SetChangedFunc(func(string) { l.MarkDirty() }).
		SetErrorFunc(func(key string, err error) { l.reportError(err) })
}

// Sync applies pending option changes. Draw calls it; call it directly to
// start loading before the first draw.
func (l *ObserverList) Sync() {
	if !l.identityPending {
		return
	}
	l.identityPending = false
	id := l.opts.identity()
	if !l.controller.Identity().Equal(id) {
		l.observer.Reset()
	}
	l.controller.SetIdentity(id)
}

// Close tears the list down: listeners are detached and fetches in flight are
// ignored.
func (l *ObserverList) Close() {
	l.controller.Close()
	l.hydrator.Reset()
	l.observer.Reset()
}

// State returns the pagination state.
func (l *ObserverList) State() paginate.State {
	return l.controller.State()
}

// Err returns the last configuration or fetch error.
func (l *ObserverList) Err() error {
	return l.controller.Err()
}

// Entries returns the displayed entries.
func (l *ObserverList) Entries() []realtime.Entry {
	return l.entries
}

// Data returns the hydrated data of key.
func (l *ObserverList) Data(key string) hydrate.Data {
	return l.hydrator.Data(key)
}

// Observed reports whether key is within the hydration margin.
func (l *ObserverList) Observed(key string) bool {
	return l.observer.IsVisible(key)
}

func (l *ObserverList) Cursor() int {
	return l.cursor
}

// SelectedKey returns the key under the cursor, if any.
func (l *ObserverList) SelectedKey() (string, bool) {
	if l.cursor < 0 || l.cursor >= len(l.entries) {
		return "", false
	}
	return l.entries[l.cursor].Key, true
}

// SetCursor moves the cursor to index and scrolls it into view.
func (l *ObserverList) SetCursor(index int) *ObserverList {
	index = min(max(index, -1), len(l.entries)-1)
	if l.cursor != index {
		l.cursor = index
		l.wantsCursor = true
		l.atEnd = false
		l.MarkDirty()
		if l.changed != nil {
			l.changed(l.cursor)
		}
	}
	return l
}

// ScrollTo sets the first visible row.
func (l *ObserverList) ScrollTo(row int) *ObserverList {
	l.scroll = max(row, 0)
	l.wantsCursor = false
	l.atEnd = false
	l.MarkDirty()
	return l
}

// ScrollToEnd scrolls to the last row.
func (l *ObserverList) ScrollToEnd() *ObserverList {
	l.atEnd = true
	l.scroll = -1
	l.wantsCursor = false
	l.MarkDirty()
	return l
}

func (l *ObserverList) reportError(err error) {
	glog.Errorf("[list]%s: %v\n", l.opts.DataType, err)
	l.MarkDirty()
	if l.onError != nil {
		l.onError(err)
	}
}

// entriesChanged runs whenever the loaded list changed.
func (l *ObserverList) entriesChanged() {
	all := l.controller.Entries()
	entries := make([]realtime.Entry, 0, len(all))
	stamps := make(map[string]any, len(all))
	for _, e := range all {
		if l.omit.Contains(e.Key) {
			continue
		}
		entries = append(entries, e)
		stamps[e.Key] = e.Value
	}

	for key := range l.stamps {
		if _, ok := stamps[key]; ok {
			continue
		}
		l.hydrator.Forget(key)
		delete(l.reveal, key)
		if s, ok := l.slots[key]; ok {
			delete(l.slots, key)
			s.unregister()
		}
	}

	var fresh []string
	for _, e := range entries {
		if _, ok := l.stamps[e.Key]; !ok {
			fresh = append(fresh, e.Key)
		}
	}
	l.entries, l.stamps = entries, stamps
	l.scheduleReveal(fresh)

	for _, e := range entries {
		l.hydrator.Update(e.Key, l.observer.IsVisible(e.Key), e.Value)
	}

	if l.cursor >= len(l.entries) {
		l.SetCursor(len(l.entries) - 1)
	}
	l.MarkDirty()
}

// scheduleReveal staggers the appearance of keys new to the list.
func (l *ObserverList) scheduleReveal(keys []string) {
	if !l.opts.Animate || l.opts.AnimationStep <= 0 || len(keys) == 0 {
		return
	}
	now := time.Now()
	for i, key := range keys {
		delay := time.Duration(i) * l.opts.AnimationStep
		l.reveal[key] = now.Add(delay)
		if delay > 0 {
			time.AfterFunc(delay, func() {
				l.sched.Post(l.MarkDirty)
			})
		}
	}
}

func (l *ObserverList) revealed(key string) bool {
	at, ok := l.reveal[key]
	if !ok {
		return true
	}
	if time.Now().Before(at) {
		return false
	}
	delete(l.reveal, key)
	return true
}

// visibilityChanged runs for every batch of the viewport observer. The
// controller is told on a later turn of the scheduler so that a batch raised
// while the controller reports a change does not re-enter it.
func (l *ObserverList) visibilityChanged(batch []viewport.Change) {
	for _, c := range batch {
		if stamp, ok := l.stamps[c.Key]; ok {
			l.hydrator.Update(c.Key, l.observer.IsVisible(c.Key), stamp)
		}
	}
	l.MarkDirty()
	if l.visibilityPosted {
		return
	}
	l.visibilityPosted = true
	l.sched.Post(func() {
		l.visibilityPosted = false
		l.controller.SetVisible(l.observer.Visible())
	})
}

func (l *ObserverList) props(i int, e realtime.Entry) ItemProps {
	p := ItemProps{
		Index:    i,
		Top:      i == 0,
		Bottom:   i == len(l.entries)-1,
		Key:      e.Key,
		DataType: l.opts.DataType,
		Stamp:    e.Value,
		Data:     l.hydrator.Data(e.Key),
		Observed: l.observer.IsVisible(e.Key),
		Selected: i == l.cursor,
		Revealed: l.revealed(e.Key),
	}
	if c, ok := l.opts.Selector.(realtime.ConnectionList); ok {
		p.ParentType, p.ParentKey = c.ParentType, c.ParentKey
	}
	return p
}

// buildLayout lays out every row of the list for width.
func (l *ObserverList) buildLayout(width int) []row {
	minHeight := max(l.opts.ListItemMinHeight, 1)
	var rows []row
	top := 0
	add := func(r row, floor int) {
		r.top = top
		r.height = max(r.item.Height(width), floor)
		top += r.height
		rows = append(rows, r)
	}

	if len(l.entries) == 0 {
		switch {
		case l.controller.State() == paginate.StateInitialLoad || l.identityPending:
			if l.loading != nil {
				add(row{kind: rowLoading, index: -1, item: l.loading}, 1)
			}
		case l.empty != nil:
			add(row{kind: rowEmpty, index: -1, item: l.empty}, 1)
		}
		return rows
	}

	if l.prefix != nil {
		add(row{kind: rowPrefix, index: -1, item: l.prefix}, 1)
	}
	var group time.Time
	for i, e := range l.entries {
		if start, ok := l.opts.Grouping.Group(e, l.location); ok && !start.Equal(group) {
			group = start
			if header := l.groupingBuilder(l.opts.Grouping, start); header != nil {
				add(row{kind: rowHeader, index: -1, item: header}, 1)
			}
		}
		item := l.builder(l.props(i, e))
		if item == nil {
			item = NewTextItem("")
		}
		add(row{kind: rowItem, index: i, key: e.Key, item: item}, minHeight)
	}
	return rows
}

func (l *ObserverList) Draw(screen tcell.Screen) {
	l.Sync()
	l.DrawForSubclass(screen, l)

	x, y, width, height := l.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}

	l.layout = l.buildLayout(width)
	total := 0
	if n := len(l.layout); n > 0 {
		total = l.layout[n-1].top + l.layout[n-1].height
	}
	maxScroll := max(total-height, 0)

	if l.scroll < 0 || (l.trackEnd && l.atEnd) {
		l.scroll = maxScroll
	}
	if l.wantsCursor {
		l.scrollToCursor(height)
		l.wantsCursor = false
	}
	l.scroll = min(max(l.scroll, 0), maxScroll)
	l.atEnd = l.scroll == maxScroll

	for _, r := range l.layout {
		if r.kind != rowItem {
			continue
		}
		s, ok := l.slots[r.key]
		if !ok {
			s = &slot{}
			l.slots[r.key] = s
		}
		s.x, s.y, s.width, s.height = x, y+r.top-l.scroll, width, r.height
		if !ok {
			s.unregister = l.observer.Register(s, r.key)
		}
	}
	l.observer.Check()

	clipped := newClippedScreen(screen, x, y, width, height)
	for _, r := range l.layout {
		rowY := y + r.top - l.scroll
		if rowY+r.height <= y || rowY >= y+height {
			continue
		}
		r.item.SetRect(x, rowY, width, r.height)
		r.item.Draw(clipped)
	}
}

func (l *ObserverList) scrollToCursor(height int) {
	for _, r := range l.layout {
		if r.kind != rowItem || r.index != l.cursor {
			continue
		}
		if r.top < l.scroll {
			l.scroll = r.top
		} else if r.top+r.height > l.scroll+height {
			l.scroll = r.top + r.height - height
		}
		return
	}
}

func (l *ObserverList) pageHeight() int {
	_, _, _, height := l.GetInnerRect()
	return max(height, 1)
}

func (l *ObserverList) InputHandler(event *tcell.EventKey) Command {
	switch {
	case keybind.Matches(event, l.keymap.Down):
		l.SetCursor(min(l.cursor+1, len(l.entries)-1))
	case keybind.Matches(event, l.keymap.Up):
		if l.cursor > 0 {
			l.SetCursor(l.cursor - 1)
		}
	case keybind.Matches(event, l.keymap.PageDown):
		l.ScrollTo(l.scroll + l.pageHeight())
	case keybind.Matches(event, l.keymap.PageUp):
		l.ScrollTo(l.scroll - l.pageHeight())
	case keybind.Matches(event, l.keymap.Top):
		l.SetCursor(min(0, len(l.entries)-1))
		l.ScrollTo(0)
	case keybind.Matches(event, l.keymap.Bottom):
		l.SetCursor(len(l.entries) - 1)
		l.ScrollToEnd()
	case keybind.Matches(event, l.keymap.Select):
		if key, ok := l.SelectedKey(); ok && l.selected != nil {
			l.selected(key)
		}
		return ConsumeEventCommand{}
	default:
		return nil
	}
	return RedrawCommand{}
}

func (l *ObserverList) MouseHandler(action MouseAction, event *tcell.EventMouse) (Primitive, Command) {
	x, y := event.Position()
	if !l.InRect(x, y) {
		return nil, nil
	}
	switch action {
	case MouseLeftClick:
		if index := l.indexAtPoint(y); index >= 0 {
			l.SetCursor(index)
		}
		return nil, BatchCommand{SetFocusCommand{Target: l}, RedrawCommand{}}
	case MouseLeftDoubleClick:
		if index := l.indexAtPoint(y); index >= 0 && l.selected != nil {
			l.selected(l.entries[index].Key)
		}
		return nil, ConsumeEventCommand{}
	case MouseScrollUp:
		l.ScrollTo(l.scroll - wheelStep)
		return nil, RedrawCommand{}
	case MouseScrollDown:
		l.ScrollTo(l.scroll + wheelStep)
		return nil, RedrawCommand{}
	}
	return nil, nil
}

// indexAtPoint returns the entry drawn on screen row y, or -1.
func (l *ObserverList) indexAtPoint(y int) int {
	_, innerY, _, height := l.GetInnerRect()
	if y < innerY || y >= innerY+height {
		return -1
	}
	offset := y - innerY + l.scroll
	for _, r := range l.layout {
		if offset >= r.top && offset < r.top+r.height {
			if r.kind == rowItem {
				return r.index
			}
			return -1
		}
	}
	return -1
}

var _ Primitive = &ObserverList{}

// clippedScreen drops cells outside a rect so items partially scrolled out
// of the list do not draw over its frame.
type clippedScreen struct {
	tcell.Screen
	x, y, width, height int
}

func newClippedScreen(screen tcell.Screen, x, y, width, height int) *clippedScreen {
	return &clippedScreen{Screen: screen, x: x, y: y, width: width, height: height}
}

func (s *clippedScreen) SetContent(x, y int, primary rune, combining []rune, style tcell.Style) {
	if x < s.x || x >= s.x+s.width || y < s.y || y >= s.y+s.height {
		return
	}
	s.Screen.SetContent(x, y, primary, combining, style)
}
