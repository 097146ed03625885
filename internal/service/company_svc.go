package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hualang_api/internal/model"
	"hualang_api/internal/repository"
)

// CompanyService 公司
type CompanyService struct {
	uow *repository.LedgerUnitOfWork
	now func() time.Time
}

func NewCompanyService(uow *repository.LedgerUnitOfWork) *CompanyService {
	return &CompanyService{uow: uow, now: time.Now}
}

func (s *CompanyService) GetByUserID(ctx context.Context, userID int64) (*model.Company, error) {
	company, err := s.uow.Companies.GetByUserID(ctx, userID)
	if err != nil {
		return nil, ErrInternal("查询公司失败", err)
	}
	if company == nil {
		return nil, ErrNotFound("公司不存在")
	}
	return company, nil
}

// Subscribe 订阅会员，从当前时间起算
func (s *CompanyService) Subscribe(ctx context.Context, userID int64, membership model.MembershipType) (*model.Company, error) {
	start := s.now()
	end, err := membership.EndDate(start)
	if err != nil {
		return nil, ErrValidation("会员类型只能是 trial、monthly 或 yearly")
	}
	company, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	company.Membership = membership
	company.MembershipStartDate = &start
	company.MembershipEndDate = &end
	if err := s.uow.Companies.Update(ctx, company); err != nil {
		return nil, ErrInternal("更新会员失败", err)
	}
	return company, nil
}

// ====== 看板 ======

// SalesPoint 某一天/月的销售额与利润
type SalesPoint struct {
	Label       string          `json:"label"`
	TotalSales  decimal.Decimal `json:"totalsales"`
	TotalProfit decimal.Decimal `json:"totalprofit"`
}

// HotItem 热门主题/尺寸
type HotItem struct {
	Label      string `json:"label"`
	SalesCount int    `json:"salesCount"`
}

// PeriodLabels 周/月/年三档的横轴标签
type PeriodLabels struct {
	Week  []string `json:"week"`
	Month []string `json:"month"`
	Year  []string `json:"year"`
}

// Dashboard 公司看板
type Dashboard struct {
	Company     *model.Company               `json:"company"`
	Artists     []repository.ArtistWithCount `json:"artists"`
	Exhibitions []model.Exhibition           `json:"exhibitions"`

	WeekSales  []SalesPoint `json:"weekSales"`
	MonthSales []SalesPoint `json:"monthSales"`
	YearSales  []SalesPoint `json:"yearSales"`

	WeekHotThemes  []HotItem `json:"weekHotThemes"`
	MonthHotThemes []HotItem `json:"monthHotThemes"`
	YearHotThemes  []HotItem `json:"yearHotThemes"`

	WeekHotSizes  []HotItem `json:"weekHotSizes"`
	MonthHotSizes []HotItem `json:"monthHotSizes"`
	YearHotSizes  []HotItem `json:"yearHotSizes"`

	TimeLabels PeriodLabels `json:"timeLabels"`
	DateLabels PeriodLabels `json:"dateLabels"`
}

// Dashboard 汇总公司近一年的销售数据
func (s *CompanyService) Dashboard(ctx context.Context, userID int64) (*Dashboard, error) {
	company, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	artists, err := s.uow.Artists.ListByCompanyWithCounts(ctx, company.ID)
	if err != nil {
		return nil, ErrInternal("查询画家失败", err)
	}
	exhibitions, err := s.uow.Exhibitions.ListByCompany(ctx, company.ID)
	if err != nil {
		return nil, ErrInternal("查询展览失败", err)
	}

	now := s.now()
	sales, err := s.uow.Sales.ListByCompanySince(ctx, company.ID, now.AddDate(-1, 0, 0))
	if err != nil {
		return nil, ErrInternal("查询成交失败", err)
	}

	d := &Dashboard{Company: company, Artists: artists, Exhibitions: exhibitions}
	if d.Artists == nil {
		d.Artists = []repository.ArtistWithCount{}
	}
	fillDashboardSeries(d, sales, now)
	return d, nil
}

func fillDashboardSeries(d *Dashboard, sales []model.Sale, now time.Time) {
	week := salesSince(sales, now.AddDate(0, 0, -7))
	month := salesSince(sales, now.AddDate(0, -1, 0))
	year := salesSince(sales, now.AddDate(-1, 0, 0))

	d.WeekSales = aggregateSales(week, "2006-01-02")
	d.MonthSales = aggregateSales(month, "2006-01-02")
	d.YearSales = aggregateSales(year, "2006-01")

	theme := func(s model.Sale) string { return s.ArtworkTheme }
	size := func(s model.Sale) string { return s.ArtworkSize }
	d.WeekHotThemes = hotItems(week, theme)
	d.MonthHotThemes = hotItems(month, theme)
	d.YearHotThemes = hotItems(year, theme)
	d.WeekHotSizes = hotItems(week, size)
	d.MonthHotSizes = hotItems(month, size)
	d.YearHotSizes = hotItems(year, size)

	d.TimeLabels = timeLabels(now)
	d.DateLabels = dateLabels(now)
}

func salesSince(sales []model.Sale, since time.Time) []model.Sale {
	out := make([]model.Sale, 0, len(sales))
	for _, s := range sales {
		if !s.SaleDate.Before(since) {
			out = append(out, s)
		}
	}
	return out
}

// aggregateSales 按 layout 格式化后的日期分组求和，按标签升序
func aggregateSales(sales []model.Sale, layout string) []SalesPoint {
	index := map[string]int{}
	points := []SalesPoint{}
	for _, s := range sales {
		label := s.SaleDate.Format(layout)
		i, ok := index[label]
		if !ok {
			i = len(points)
			index[label] = i
			points = append(points, SalesPoint{Label: label, TotalSales: decimal.Zero, TotalProfit: decimal.Zero})
		}
		points[i].TotalSales = points[i].TotalSales.Add(s.SalePrice)
		points[i].TotalProfit = points[i].TotalProfit.Add(s.Profit)
	}
	sort.Slice(points, func(a, b int) bool { return points[a].Label < points[b].Label })
	return points
}

// hotItems 按成交笔数降序
func hotItems(sales []model.Sale, key func(model.Sale) string) []HotItem {
	counts := map[string]int{}
	for _, s := range sales {
		counts[key(s)]++
	}
	items := make([]HotItem, 0, len(counts))
	for label, n := range counts {
		items = append(items, HotItem{Label: label, SalesCount: n})
	}
	sort.Slice(items, func(a, b int) bool {
		if items[a].SalesCount != items[b].SalesCount {
			return items[a].SalesCount > items[b].SalesCount
		}
		return items[a].Label < items[b].Label
	})
	return items
}

var (
	weekdayNames = [...]string{"星期日", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六"}
	monthNames   = [...]string{"一月", "二月", "三月", "四月", "五月", "六月", "七月", "八月", "九月", "十月", "十一月", "十二月"}
)

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// timeLabels 中文横轴：近 7 天星期、本月每日、全年月份
func timeLabels(now time.Time) PeriodLabels {
	var l PeriodLabels
	for i := 6; i >= 0; i-- {
		l.Week = append(l.Week, weekdayNames[now.AddDate(0, 0, -i).Weekday()])
	}
	for day := 1; day <= daysInMonth(now); day++ {
		l.Month = append(l.Month, fmt.Sprintf("%d日", day))
	}
	l.Year = append(l.Year, monthNames[:]...)
	return l
}

// dateLabels 与 timeLabels 一一对应的 ISO 日期
func dateLabels(now time.Time) PeriodLabels {
	var l PeriodLabels
	for i := 6; i >= 0; i-- {
		l.Week = append(l.Week, now.AddDate(0, 0, -i).Format("2006-01-02"))
	}
	for day := 1; day <= daysInMonth(now); day++ {
		l.Month = append(l.Month, time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, now.Location()).Format("2006-01-02"))
	}
	for m := time.January; m <= time.December; m++ {
		l.Year = append(l.Year, time.Date(now.Year(), m, 1, 0, 0, 0, 0, now.Location()).Format("2006-01"))
	}
	return l
}
