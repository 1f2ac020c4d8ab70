// Package model содержит доменные сущности магазина.
package model

import "time"

// Role описывает роль пользователя в системе.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User представляет пользователя магазина с бонусным счётом.
type User struct {
	ID           int64     `json:"id"`
	Email        *string   `json:"email,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	TelegramID   *string   `json:"telegramId,omitempty"`
	Username     *string   `json:"username,omitempty"`
	Name         *string   `json:"name,omitempty"`
	PasswordHash []byte    `json:"-"`
	Role         Role      `json:"role"`
	BonusBalance float64   `json:"bonusBalance"`
	TotalSpent   float64   `json:"totalSpent"`
	OrdersCount  int       `json:"ordersCount"`
	ReferralCode string    `json:"referralCode"`
	ReferrerID   *int64    `json:"referrerId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin сообщает, является ли пользователь администратором.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Product описывает товар каталога.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	ImageURL    *string   `json:"imageUrl"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OrderStatus описывает статус обработки заказа.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid проверяет, что статус входит в число допустимых значений.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderStatuses перечисляет допустимые статусы заказа.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// Order описывает заказ вместе с позициями.
type Order struct {
	ID            int64       `json:"id"`
	CustomerName  string      `json:"customerName"`
	CustomerPhone string      `json:"customerPhone"`
	CustomerEmail *string     `json:"customerEmail,omitempty"`
	Address       string      `json:"address"`
	TotalPrice    float64     `json:"totalPrice"`
	Status        OrderStatus `json:"status"`
	UserID        *int64      `json:"userId,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	Items         []OrderItem `json:"items"`
}

// OrderItem описывает позицию заказа с ценой на момент покупки.
type OrderItem struct {
	ID        int64    `json:"id"`
	ProductID int64    `json:"productId"`
	Quantity  int      `json:"quantity"`
	Price     float64  `json:"price"`
	Product   *Product `json:"product,omitempty"`
}

// NewOrderItem описывает запрошенную позицию при оформлении заказа.
type NewOrderItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// NewOrder описывает данные для создания заказа.
type NewOrder struct {
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Address       string
	Items         []NewOrderItem
	UserID        *int64
}

// BonusType описывает вид бонусного начисления.
type BonusType string

const (
	BonusTypeLoyalty  BonusType = "loyalty_5percent"
	BonusTypeReferral BonusType = "referral_bonus"
)

// BonusTransaction представляет запись в журнале бонусных начислений.
// Журнал append-only: записи никогда не изменяются и не удаляются.
type BonusTransaction struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Amount      float64   `json:"amount"`
	Type        BonusType `json:"type"`
	OrderID     *int64    `json:"orderId,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProductFilter задаёт фильтры каталога товаров.
type ProductFilter struct {
	Category string
	MinPrice *float64
	MaxPrice *float64
	InStock  bool
}

// Referral описывает приглашённого пользователя в статистике рефералов.
type Referral struct {
	ID                int64     `json:"id"`
	TelegramID        *string   `json:"telegramId,omitempty"`
	Username          *string   `json:"username,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	HasCompletedOrder bool      `json:"hasCompletedOrder"`
}

// ReferralStats содержит сводку по приглашённым пользователям.
type ReferralStats struct {
	TotalReferrals     int        `json:"totalReferrals"`
	CompletedReferrals int        `json:"completedReferrals"`
	PendingBonus       float64    `json:"pendingBonus"`
	Referrals          []Referral `json:"referrals"`
}

// PopularProduct описывает товар вместе с количеством проданных единиц.
type PopularProduct struct {
	Product
	TotalSold int64 `json:"totalSold"`
}

// DashboardTotals содержит счётчики и выручку для панели администратора.
type DashboardTotals struct {
	TotalOrders   int64   `json:"totalOrders"`
	TotalUsers    int64   `json:"totalUsers"`
	TotalProducts int64   `json:"totalProducts"`
	TotalRevenue  float64 `json:"totalRevenue"`
}

// DashboardStats содержит сводные показатели для админской панели.
type DashboardStats struct {
	Stats           DashboardTotals  `json:"stats"`
	RecentOrders    []Order          `json:"recentOrders"`
	PopularProducts []PopularProduct `json:"popularProducts"`
}

// ProductInput описывает данные для создания товара.
type ProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category"`
	ImageURL    *string `json:"imageUrl"`
}

// ProductUpdate описывает частичное обновление товара: nil-поля не изменяются.
type ProductUpdate struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	Category    *string  `json:"category"`
	ImageURL    *string  `json:"imageUrl"`
	IsActive    *bool    `json:"isActive"`
}
